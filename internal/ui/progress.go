package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/fwfleet/internal/events"
	"github.com/muurk/fwfleet/internal/fleet"
)

// RowStatus represents the state of one device in a job board
type RowStatus int

const (
	RowPending   RowStatus = iota // Request sent, no outcome yet
	RowRunning                    // Job enqueued or in progress
	RowSucceeded                  // Finished successfully
	RowFailed                     // Failed
	RowWarning                    // Tracking stopped without a verdict
)

// Row is one device line of a job board
type Row struct {
	Device  fleet.Device
	JobID   string
	Status  RowStatus
	Percent int    // Last numeric progress, -1 if none
	Message string // Last raw status or failure reason
}

// JobBoard keeps one row per device and renders a progress bar for each
type JobBoard struct {
	Label string
	Width int

	rows  []*Row
	index map[string]*Row
	bar   progress.Model
}

// NewJobBoard creates a board with a pending row for every device
func NewJobBoard(label string, devices []fleet.Device) *JobBoard {
	b := &JobBoard{
		Label: label,
		index: make(map[string]*Row, len(devices)),
	}
	for _, d := range devices {
		b.row(d)
	}
	return b.SetWidth(GetTerminalWidth())
}

// SetWidth sets the terminal width for responsive rendering
func (b *JobBoard) SetWidth(width int) *JobBoard {
	b.Width = width

	barWidth := width - 60
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 40 {
		barWidth = 40
	}
	b.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	return b
}

func (b *JobBoard) row(d fleet.Device) *Row {
	if r, ok := b.index[d.Serial]; ok {
		return r
	}
	r := &Row{Device: d, Percent: -1}
	b.rows = append(b.rows, r)
	b.index[d.Serial] = r
	return r
}

// Rows returns the board's rows in insertion order
func (b *JobBoard) Rows() []Row {
	out := make([]Row, len(b.rows))
	for i, r := range b.rows {
		out[i] = *r
	}
	return out
}

// Apply updates the device's row from an outcome event
func (b *JobBoard) Apply(e events.Event) {
	r := b.row(e.Device)
	if e.JobID != "" {
		r.JobID = e.JobID
	}

	switch e.Kind {
	case events.KindEnqueued:
		r.Status = RowRunning
		r.Message = "enqueued"
	case events.KindProgress:
		r.Status = RowRunning
		r.Percent = e.Percent
		r.Message = ""
	case events.KindOngoing:
		r.Status = RowRunning
		r.Message = e.Status
	case events.KindSucceeded:
		r.Status = RowSucceeded
		r.Percent = 100
		r.Message = ""
	case events.KindFailed:
		r.Status = RowFailed
		r.Message = e.Reason
	case events.KindWarning:
		r.Status = RowWarning
		r.Message = e.Reason
	}
}

// Done reports whether every row reached a final status
func (b *JobBoard) Done() bool {
	for _, r := range b.rows {
		if r.Status == RowPending || r.Status == RowRunning {
			return false
		}
	}
	return true
}

// Render returns the styled board as a string
func (b *JobBoard) Render() string {
	nameWidth := 10
	for _, r := range b.rows {
		if w := lipgloss.Width(r.Device.DisplayName()); w > nameWidth {
			nameWidth = w
		}
	}

	var lines []string
	if b.Label != "" {
		lines = append(lines, HeaderTitleStyle.Render(b.Label), "")
	}

	for _, r := range b.rows {
		lines = append(lines, b.renderRow(r, nameWidth))
	}
	return strings.Join(lines, "\n")
}

func (b *JobBoard) renderRow(r *Row, nameWidth int) string {
	name := r.Device.DisplayName()
	name += strings.Repeat(" ", nameWidth-lipgloss.Width(name))

	job := "     "
	if r.JobID != "" {
		job = fmt.Sprintf("#%-4s", r.JobID)
	}

	percent := 0.0
	if r.Percent > 0 {
		percent = float64(r.Percent) / 100
	}

	var status string
	switch r.Status {
	case RowSucceeded:
		status = SuccessTitleStyle.Render(SuccessMarker + " done")
	case RowFailed:
		status = ErrorTitleStyle.Render(FailureMarker + " " + r.Message)
	case RowWarning:
		status = WarningTitleStyle.Render(WarningMarker + " " + r.Message)
	case RowRunning:
		if r.Percent >= 0 && r.Message == "" {
			status = fmt.Sprintf("%3d%%", r.Percent)
		} else {
			status = MutedStyle.Render(r.Message)
		}
	default:
		status = MutedStyle.Render(PendingMarker + " waiting")
	}

	return fmt.Sprintf("  %s  %s  %s  %s",
		HeaderParamValueStyle.Render(name),
		MutedStyle.Render(job),
		b.bar.ViewAs(percent),
		status,
	)
}

// String implements fmt.Stringer
func (b *JobBoard) String() string {
	return b.Render()
}
