package dispatch

import (
	"context"
	"sync"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/jobs"
)

// Run is one dispatch of an operation to a device set
type Run struct {
	// ID correlates log lines of this run
	ID string

	// Operation is the dispatched operation
	Operation *catalog.Operation

	// Devices is the target set, in the order given
	Devices []fleet.Device

	dispatched chan struct{}
	wg         sync.WaitGroup

	mu       sync.Mutex
	trackers []*jobs.Tracker
}

func newRun(id string, op *catalog.Operation, devices []fleet.Device) *Run {
	return &Run{
		ID:         id,
		Operation:  op,
		Devices:    devices,
		dispatched: make(chan struct{}),
	}
}

// track starts a tracker in its own goroutine
func (r *Run) track(ctx context.Context, t *jobs.Tracker) {
	r.mu.Lock()
	r.trackers = append(r.trackers, t)
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		t.Run(ctx)
	}()
}

// WaitDispatched blocks until every device has received its request and
// the outcome has been classified. Trackers may still be running.
func (r *Run) WaitDispatched() {
	<-r.dispatched
}

// Wait blocks until every dispatch request and every job tracker is done
func (r *Run) Wait() {
	r.WaitDispatched()
	r.wg.Wait()
}

// Trackers returns the number of job trackers started so far
func (r *Run) Trackers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Jobs returns a snapshot of every tracked job
func (r *Run) Jobs() []jobs.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]jobs.Job, len(r.trackers))
	for i, t := range r.trackers {
		out[i] = t.Job()
	}
	return out
}
