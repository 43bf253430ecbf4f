package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/fwfleet/internal/events"
)

// eventStyle returns the marker and style for an event kind
func eventStyle(k events.Kind) (string, lipgloss.Style) {
	switch k {
	case events.KindSucceeded:
		return SuccessMarker, SuccessTitleStyle
	case events.KindFailed:
		return FailureMarker, ErrorTitleStyle
	case events.KindWarning:
		return WarningMarker, WarningTitleStyle
	case events.KindEnqueued:
		return EnqueuedMarker, EventInfoStyle
	case events.KindProgress:
		return ProgressMarker, EventInfoStyle
	default:
		return PendingMarker, MutedStyle
	}
}

// RenderEvent renders one outcome as a timestamped, colored line. Job
// detail lines of a failure follow, indented.
func RenderEvent(e events.Event) string {
	marker, style := eventStyle(e.Kind)

	text := e.String()
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}

	var b strings.Builder
	b.WriteString(EventTimeStyle.Render(e.Time.Format("15:04:05")))
	b.WriteString("  ")
	b.WriteString(style.Render(marker + " " + text))

	for _, line := range e.Details {
		b.WriteString("\n")
		b.WriteString(EventDetailStyle.Render(line))
	}
	return b.String()
}
