package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/fwfleet/internal/fleet"
)

// ConfirmPhrase must be typed to confirm a dangerous operation
const ConfirmPhrase = "I AGREE"

// ConfirmDangerousOperation displays a warning box on out and reads a line
// from in. Returns true only if the user typed ConfirmPhrase.
func ConfirmDangerousOperation(in io.Reader, out io.Writer, title string, warnings []string, disclaimer string) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)),
		"",
	}

	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	if disclaimer != "" {
		disclaimerStyle := lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width - 12).
			PaddingLeft(3)
		lines = append(lines, disclaimerStyle.Render(disclaimer), "")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	_, _ = fmt.Fprintln(out, box)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", ConfirmPhrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	if strings.TrimSpace(input) == ConfirmPhrase {
		return true
	}

	_, _ = fmt.Fprintln(out, MutedStyle.Render("  Operation cancelled."))
	_, _ = fmt.Fprintln(out)
	return false
}

// RebootConfirmation asks before rebooting devices
func RebootConfirmation(in io.Reader, out io.Writer, devices []fleet.Device) bool {
	warnings := []string{
		fmt.Sprintf("%d device(s) will restart and stop passing traffic until they are back", len(devices)),
	}

	const maxListed = 5
	for i, d := range devices {
		if i == maxListed {
			warnings = append(warnings, fmt.Sprintf("... and %d more", len(devices)-maxListed))
			break
		}
		warnings = append(warnings, d.Label())
	}

	return ConfirmDangerousOperation(in, out,
		"REBOOT",
		warnings,
		"The manager accepts the request immediately; there is no way to cancel "+
			"a reboot once it has been sent.",
	)
}
