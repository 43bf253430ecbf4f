package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/panapi"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

// RenderDeviceTable renders devices as a hostname/serial table
func RenderDeviceTable(devices []fleet.Device) string {
	t := newTable("HOSTNAME", "SERIAL")
	for _, d := range devices {
		t.Row(d.DisplayName(), d.Serial)
	}
	return t.Render()
}

// RenderVersionTable renders the result of a software check
func RenderVersionTable(versions []panapi.SoftwareVersion) string {
	t := newTable("VERSION", "DOWNLOADED", "CURRENT", "LATEST", "RELEASED")
	for _, v := range versions {
		t.Row(v.Version, check(v.Downloaded), check(v.Current), check(v.Latest), v.ReleasedOn)
	}
	return t.Render()
}

// RenderOperationTable renders the user-facing catalog operations
func RenderOperationTable(ops []*catalog.Operation) string {
	t := newTable("KEY", "NAME", "JOB", "REQUIRES")
	for _, op := range ops {
		name := op.Name
		if op.Dangerous {
			name += " " + WarningMarker
		}
		t.Row(op.Key, name, check(op.GeneratesJob), strings.Join(op.Requires, ", "))
	}
	return t.Render()
}

func check(b bool) string {
	if b {
		return SuccessMarker
	}
	return ""
}
