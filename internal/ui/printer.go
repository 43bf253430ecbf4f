package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/events"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/panapi"
)

// Printer provides methods for printing UI components to a writer.
// This is the primary way commands should output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
	p.Newline()
}

// PrintResult prints a result box
func (p *Printer) PrintResult(r *Result) {
	p.Println(r.SetWidth(p.width).Render())
}

// PrintError prints a failure box for err with troubleshooting hints
func (p *Printer) PrintError(title string, err error) {
	r := NewFailureResult(title, fmt.Errorf("%s", panapi.ShortMessage(err)), panapi.TroubleshootingHint(err))
	p.PrintResult(r)
}

// PrintEvent prints one outcome line
func (p *Printer) PrintEvent(e events.Event) {
	p.Println(RenderEvent(e))
}

// EventListener returns a listener that prints every event. The stream
// serializes listener calls, so lines never interleave.
func (p *Printer) EventListener() events.Listener {
	return p.PrintEvent
}

// PrintSummary prints the closing box of a run
func (p *Printer) PrintSummary(operation string, s events.Summary) {
	p.Newline()
	p.PrintResult(NewSummaryResult(operation, s))
}

// PrintDevices prints the connected device table
func (p *Printer) PrintDevices(devices []fleet.Device) {
	if len(devices) == 0 {
		p.Println(MutedStyle.Render("No connected devices."))
		return
	}
	p.Println(RenderDeviceTable(devices))
	p.Println(MutedStyle.Render(fmt.Sprintf("%d connected device(s)", len(devices))))
}

// PrintVersions prints a software check result for one device
func (p *Printer) PrintVersions(device fleet.Device, versions []panapi.SoftwareVersion) {
	if len(versions) == 0 {
		p.Println(WarningTitleStyle.Render(WarningMarker + " No software versions found on " + device.Label()))
		return
	}
	p.Println(RenderVersionTable(versions))
	p.Println(MutedStyle.Render(fmt.Sprintf("%d version(s) available on %s", len(versions), device.Label())))
}

// PrintOperations prints the operation catalog
func (p *Printer) PrintOperations(ops []*catalog.Operation) {
	p.Println(RenderOperationTable(ops))
}
