package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/fwfleet/internal/fleet"
)

// Kind identifies the type of an outcome event
type Kind int

const (
	// KindEnqueued reports that the manager accepted a job for a device
	KindEnqueued Kind = iota
	// KindProgress reports a numeric progress observation for an active job
	KindProgress
	// KindOngoing reports a non-terminal job status without progress
	KindOngoing
	// KindSucceeded reports a successful command or a job that finished OK
	KindSucceeded
	// KindFailed reports a failed command, a failed job, or an unreadable job
	KindFailed
	// KindWarning reports a condition that ended tracking without a verdict
	KindWarning
)

// String returns a short name for the kind
func (k Kind) String() string {
	switch k {
	case KindEnqueued:
		return "enqueued"
	case KindProgress:
		return "progress"
	case KindOngoing:
		return "ongoing"
	case KindSucceeded:
		return "succeeded"
	case KindFailed:
		return "failed"
	case KindWarning:
		return "warning"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Terminal reports whether the kind ends the lifecycle of a command or job
func (k Kind) Terminal() bool {
	return k == KindSucceeded || k == KindFailed || k == KindWarning
}

// Event is a single outcome observation for one device
type Event struct {
	Kind      Kind
	Time      time.Time
	Operation string       // Operation name (e.g., "Download Version")
	Device    fleet.Device // Affected device
	JobID     string       // Manager job ID, empty for non-job outcomes
	Percent   int          // Progress percentage (KindProgress)
	Status    string       // Raw job status (KindOngoing)
	Reason    string       // Human-readable cause (KindFailed, KindWarning)
	Details   []string     // Job detail lines reported by the manager
	Err       error        // Underlying error, if any
}

// String renders the event as a single human-readable line that always names
// the affected device
func (e Event) String() string {
	name := e.Device.DisplayName()

	switch e.Kind {
	case KindEnqueued:
		return fmt.Sprintf("Job enqueued (ID: %s) on %s. Monitoring...", e.JobID, name)
	case KindProgress:
		return fmt.Sprintf("Job %s on %s is in progress... %d%% complete.", e.JobID, name, e.Percent)
	case KindOngoing:
		return fmt.Sprintf("Job %s on %s is ongoing. Status: %s", e.JobID, name, e.Status)
	case KindSucceeded:
		if e.JobID != "" {
			return fmt.Sprintf("Job %s on %s FINISHED successfully.", e.JobID, name)
		}
		return fmt.Sprintf("%s succeeded on %s", e.operationName(), name)
	case KindFailed:
		var line string
		if e.JobID != "" {
			line = fmt.Sprintf("Job %s on %s failed: %s", e.JobID, name, e.reason())
		} else {
			line = fmt.Sprintf("%s failed on %s: %s", e.operationName(), name, e.reason())
		}
		if len(e.Details) > 0 {
			line += "\n" + strings.Join(e.Details, "\n")
		}
		return line
	case KindWarning:
		if e.JobID != "" {
			return fmt.Sprintf("Warning: job %s on %s: %s", e.JobID, name, e.reason())
		}
		return fmt.Sprintf("Warning: %s: %s", name, e.reason())
	default:
		return fmt.Sprintf("%s on %s", e.Kind, name)
	}
}

func (e Event) operationName() string {
	if e.Operation == "" {
		return "Command"
	}
	return e.Operation
}

func (e Event) reason() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown cause"
}
