package jobs

import "fmt"

// State is the lifecycle state of a tracked job
type State int

const (
	// StatePolling is the initial state: no snapshot has been observed yet
	StatePolling State = iota
	// StateActive means the last snapshot reported the job as running
	StateActive
	// StateSucceeded means the job finished with result OK
	StateSucceeded
	// StateFailed means the job finished with any other result
	StateFailed
	// StateIndeterminate means tracking stopped without a verdict
	StateIndeterminate
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateActive:
		return "active"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateIndeterminate:
		return "indeterminate"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further polls happen in this state
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateIndeterminate
}
