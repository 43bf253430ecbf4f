package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/events"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/panapi"
)

const (
	// DefaultPollInterval is the delay before each job status query
	DefaultPollInterval = 5 * time.Second

	// StatusFinished is the manager's status code for a completed job
	StatusFinished = "FIN"
	// StatusActive is the manager's status code for a running job
	StatusActive = "ACT"
	// ResultOK is the result code of a successful job
	ResultOK = "OK"
)

// Options tune polling
type Options struct {
	// Interval between status queries (DefaultPollInterval when zero)
	Interval time.Duration

	// MaxPolls stops tracking as indeterminate after this many queries
	// without a terminal status. Zero means poll until a verdict.
	MaxPolls int
}

func (o Options) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultPollInterval
	}
	return o.Interval
}

// Job is a snapshot of a tracked job. It exists only while its tracker runs.
type Job struct {
	ID        string
	Operation string
	Device    fleet.Device
	State     State

	// Status is the last raw status code observed (e.g., "ACT")
	Status string
	// Result is the last raw result code observed (e.g., "OK", "FAIL")
	Result string
	// LastProgress is the last numeric progress observed, -1 if none
	LastProgress int
	// Details are the detail lines of the last snapshot
	Details []string
	// Polls is the number of status queries issued
	Polls int
}

// Config holds the collaborators a tracker needs
type Config struct {
	Sender     panapi.Sender
	Classifier *panapi.Classifier
	Catalog    *catalog.Catalog
	Sink       events.Sink
	Options    Options
}

// Tracker supervises one job on one device until a terminal observation.
// Polls are strictly sequential: the next timer is armed only after the
// previous response has been classified.
type Tracker struct {
	sender     panapi.Sender
	classifier *panapi.Classifier
	sink       events.Sink
	opts       Options
	command    string
	logger     *zap.Logger

	mu  sync.Mutex
	job Job
}

// NewTracker creates a tracker for a job the manager enqueued on device
func NewTracker(cfg Config, operation string, device fleet.Device, jobID string) (*Tracker, error) {
	if cfg.Sender == nil {
		return nil, fmt.Errorf("tracker requires a sender")
	}

	cat := cfg.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Load(); err != nil {
			return nil, err
		}
	}

	showJob, ok := cat.Get(catalog.KeyShowJob)
	if !ok {
		return nil, fmt.Errorf("catalog has no %q operation", catalog.KeyShowJob)
	}
	command, err := showJob.Render(catalog.Params{JobID: jobID})
	if err != nil {
		return nil, err
	}

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = panapi.NewClassifier()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.Discard
	}

	return &Tracker{
		sender:     cfg.Sender,
		classifier: classifier,
		sink:       sink,
		opts:       cfg.Options,
		command:    command,
		logger: logging.Named("jobs").With(
			zap.String("job_id", jobID),
			zap.String("serial", device.Serial),
		),
		job: Job{
			ID:           jobID,
			Operation:    operation,
			Device:       device,
			State:        StatePolling,
			LastProgress: -1,
		},
	}, nil
}

// Job returns a copy of the current job snapshot
func (t *Tracker) Job() Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.job
	job.Details = append([]string(nil), t.job.Details...)
	return job
}

// State returns the current state
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job.State
}

// Run polls until a terminal state is reached or ctx is cancelled, and
// returns the final state. Cancellation emits no event.
func (t *Tracker) Run(ctx context.Context) State {
	interval := t.opts.interval()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	t.logger.Debug("Tracking job", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Job tracking abandoned", zap.Error(ctx.Err()))
			return t.State()
		case <-timer.C:
		}

		if state := t.poll(ctx); state.Terminal() {
			return state
		}

		if t.opts.MaxPolls > 0 && t.Job().Polls >= t.opts.MaxPolls {
			return t.finish(StateIndeterminate, events.Event{
				Kind:   events.KindWarning,
				Reason: fmt.Sprintf("no final status after %d polls", t.opts.MaxPolls),
			})
		}

		timer.Reset(interval)
	}
}

// poll issues one status query and applies the observation
func (t *Tracker) poll(ctx context.Context) State {
	t.mu.Lock()
	t.job.Polls++
	t.mu.Unlock()

	body, err := t.sender.Send(ctx, t.command, t.job.Device.Serial)
	if err != nil {
		if ctx.Err() != nil {
			t.logger.Info("Job tracking abandoned", zap.Error(ctx.Err()))
			return t.State()
		}
		return t.finish(StateIndeterminate, events.Event{
			Kind:   events.KindFailed,
			Reason: "error checking job: " + panapi.ShortMessage(err),
			Err:    err,
		})
	}

	resp, err := t.classifier.Classify(body)
	if err != nil {
		// The manager answered but gave no status for the job
		if panapi.IsAPIError(err) {
			return t.finish(StateIndeterminate, events.Event{
				Kind:   events.KindWarning,
				Reason: "could not determine status: " + panapi.ShortMessage(err),
				Err:    err,
			})
		}
		return t.finish(StateIndeterminate, events.Event{
			Kind:   events.KindFailed,
			Reason: "error checking job: " + panapi.ShortMessage(err),
			Err:    err,
		})
	}

	snap, ok := resp.JobSnapshot()
	if !ok {
		return t.finish(StateIndeterminate, events.Event{
			Kind:   events.KindWarning,
			Reason: "could not determine status",
			Err:    panapi.NewIndeterminateError("response has no job status", nil),
		})
	}

	t.observe(snap)

	switch snap.Status {
	case StatusFinished:
		if snap.Result == ResultOK {
			return t.finish(StateSucceeded, events.Event{Kind: events.KindSucceeded})
		}
		result := snap.Result
		if result == "" {
			result = "no result"
		}
		return t.finish(StateFailed, events.Event{
			Kind:    events.KindFailed,
			Reason:  "finished with failure (" + result + ")",
			Details: snap.Details,
		})

	case StatusActive:
		t.transition(StateActive)
		if percent, ok := snap.Percent(); ok {
			t.mu.Lock()
			t.job.LastProgress = percent
			t.mu.Unlock()
			t.emit(events.Event{Kind: events.KindProgress, Percent: percent})
		} else {
			t.emit(events.Event{Kind: events.KindOngoing, Status: snap.Status})
		}
		return StateActive

	default:
		t.emit(events.Event{Kind: events.KindOngoing, Status: snap.Status})
		return t.State()
	}
}

func (t *Tracker) observe(snap panapi.JobSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.job.Status = snap.Status
	t.job.Result = snap.Result
	t.job.Details = snap.Details
}

func (t *Tracker) transition(to State) {
	t.mu.Lock()
	from := t.job.State
	t.job.State = to
	t.mu.Unlock()

	if from != to {
		logging.LogJobTransition(t.job.ID, t.job.Device.Serial, from.String(), to.String())
	}
}

// finish moves to a terminal state and emits its event
func (t *Tracker) finish(state State, e events.Event) State {
	t.transition(state)
	t.emit(e)

	t.logger.Info("Job tracking finished",
		zap.String("state", state.String()),
		zap.String("status", t.Job().Status),
		zap.String("result", t.Job().Result),
	)
	return state
}

func (t *Tracker) emit(e events.Event) {
	e.Operation = t.job.Operation
	e.Device = t.job.Device
	e.JobID = t.job.ID
	t.sink.Emit(e)
}
