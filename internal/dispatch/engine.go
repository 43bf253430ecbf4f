package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/events"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/jobs"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/panapi"
)

// DefaultConcurrency bounds the number of in-flight dispatch requests
const DefaultConcurrency = 8

// Engine sends one operation to many devices and supervises the jobs they
// produce. Every per-device outcome is reported to Sink; only a missing
// parameter aborts a dispatch.
type Engine struct {
	// Sender issues requests to the manager
	Sender panapi.Sender

	// Classifier interprets response bodies
	Classifier *panapi.Classifier

	// Catalog provides the job status command (catalog.Load() when nil)
	Catalog *catalog.Catalog

	// Sink receives outcome events
	Sink events.Sink

	// Concurrency bounds in-flight dispatch requests (DefaultConcurrency when zero)
	Concurrency int

	// TrackerOptions tune job polling
	TrackerOptions jobs.Options

	logger *zap.Logger
}

// NewEngine creates an engine with default settings
func NewEngine(sender panapi.Sender, sink events.Sink) *Engine {
	return &Engine{
		Sender:      sender,
		Classifier:  panapi.NewClassifier(),
		Sink:        sink,
		Concurrency: DefaultConcurrency,
		logger:      logging.Named("dispatch"),
	}
}

// Dispatch renders op with params and sends it to every device. It returns
// a *catalog.MissingParameterError, before any request is made, when a
// required parameter is empty. Otherwise it returns immediately with a Run
// that completes in the background. Devices repeating a serial are sent the
// command once.
func (e *Engine) Dispatch(ctx context.Context, op *catalog.Operation, devices []fleet.Device, params catalog.Params) (*Run, error) {
	if op == nil {
		return nil, fmt.Errorf("no operation given")
	}
	if e.Sender == nil {
		return nil, fmt.Errorf("engine has no sender")
	}
	if !op.TargetsDevice() {
		return nil, fmt.Errorf("operation '%s' runs on the manager and cannot be dispatched to devices", op.Name)
	}

	cmd, err := op.Render(params)
	if err != nil {
		return nil, err
	}

	devices = fleet.UniqueDevices(devices)
	run := newRun(uuid.NewString(), op, devices)
	logging.LogDispatch(run.ID, op.Name, len(devices))
	log := e.log().With(zap.String("run_id", run.ID), zap.String("operation", op.Key))

	var g errgroup.Group
	g.SetLimit(e.concurrency())

	go func() {
		defer close(run.dispatched)
		for _, device := range devices {
			g.Go(func() error {
				e.dispatchOne(ctx, run, log, op, cmd, device)
				return nil
			})
		}
		_ = g.Wait()
		log.Debug("Dispatch requests complete", zap.Int("trackers", run.Trackers()))
	}()

	return run, nil
}

// dispatchOne sends the command to one device and classifies the outcome
func (e *Engine) dispatchOne(ctx context.Context, run *Run, log *zap.Logger, op *catalog.Operation, cmd string, device fleet.Device) {
	log = log.With(zap.String("serial", device.Serial))

	body, err := e.Sender.Send(ctx, cmd, device.Serial)
	if err != nil {
		log.Warn("Request failed", zap.Error(err))
		e.fail(op, device, err)
		return
	}

	resp, err := e.classifier().Classify(body)
	if err != nil {
		log.Warn("Manager rejected command", zap.Error(err))
		e.fail(op, device, err)
		return
	}

	if !op.GeneratesJob {
		log.Info("Command succeeded")
		e.emit(events.Event{Kind: events.KindSucceeded, Operation: op.Name, Device: device})
		return
	}

	jobID, ok := resp.JobID()
	if !ok {
		err := panapi.NewNoJobError(op.Name)
		err.Target = device.Serial
		log.Warn("No job returned")
		e.fail(op, device, err)
		return
	}

	log.Info("Job enqueued", zap.String("job_id", jobID))
	e.emit(events.Event{Kind: events.KindEnqueued, Operation: op.Name, Device: device, JobID: jobID})

	tracker, err := jobs.NewTracker(jobs.Config{
		Sender:     e.Sender,
		Classifier: e.classifier(),
		Catalog:    e.Catalog,
		Sink:       e.sink(),
		Options:    e.TrackerOptions,
	}, op.Name, device, jobID)
	if err != nil {
		log.Error("Could not start job tracker", zap.Error(err))
		e.emit(events.Event{
			Kind:      events.KindWarning,
			Operation: op.Name,
			Device:    device,
			JobID:     jobID,
			Reason:    "job not tracked: " + err.Error(),
			Err:       err,
		})
		return
	}

	run.track(ctx, tracker)
}

func (e *Engine) fail(op *catalog.Operation, device fleet.Device, err error) {
	e.emit(events.Event{
		Kind:      events.KindFailed,
		Operation: op.Name,
		Device:    device,
		Reason:    panapi.ShortMessage(err),
		Err:       err,
	})
}

func (e *Engine) emit(ev events.Event) {
	e.sink().Emit(ev)
}

func (e *Engine) sink() events.Sink {
	if e.Sink == nil {
		return events.Discard
	}
	return e.Sink
}

func (e *Engine) classifier() *panapi.Classifier {
	if e.Classifier == nil {
		return panapi.NewClassifier()
	}
	return e.Classifier
}

func (e *Engine) concurrency() int {
	if e.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return e.Concurrency
}

func (e *Engine) log() *zap.Logger {
	if e.logger == nil {
		return logging.Named("dispatch")
	}
	return e.logger
}
