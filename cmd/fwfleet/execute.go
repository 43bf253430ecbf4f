package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/dispatch"
	"github.com/muurk/fwfleet/internal/events"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/ui"
)

// checkVersion verifies that version is offered to device by the manager
func (s *session) checkVersion(ctx context.Context, device fleet.Device, version string) error {
	available, err := s.client.CheckSoftware(ctx, device.Serial)
	if err != nil {
		return s.fail("Software version check on "+device.Label(), err)
	}

	names := make([]string, 0, len(available))
	for _, v := range available {
		if v.Version == version {
			return nil
		}
		names = append(names, v.Version)
	}

	if len(names) == 0 {
		return fmt.Errorf("no software versions available on %s", device.Label())
	}
	return fmt.Errorf("version %q is not available on %s (available: %s)",
		version, device.Label(), strings.Join(names, ", "))
}

// execute dispatches op to devices, prints outcomes as they arrive, and
// returns an error when any device failed
func (s *session) execute(ctx context.Context, op *catalog.Operation, devices []fleet.Device, params catalog.Params, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := s.opts.cfg
	stream := events.NewStream()

	engine := dispatch.NewEngine(s.client, stream)
	engine.Classifier = s.classifier
	engine.Concurrency = cfg.Dispatch.Concurrency
	engine.TrackerOptions = cfg.TrackerOptions()

	headerParams := []ui.Param{
		{Key: "Manager", Value: cfg.Manager.Address},
		{Key: "Devices", Value: fmt.Sprint(len(devices))},
	}
	if params.Version != "" {
		headerParams = append(headerParams, ui.Param{Key: "Version", Value: params.Version})
	}
	s.printer.PrintHeader(op.Name, "fwfleet "+op.Key, headerParams...)

	if watch && ui.IsTerminal(os.Stdout) {
		done := make(chan error, 1)
		detached, err := ui.Watch(s.opts.stdout, op.Name, devices, stream, func() {
			run, err := engine.Dispatch(ctx, op, devices, params)
			if err != nil {
				done <- err
				return
			}
			run.Wait()
			done <- nil
		})
		if detached {
			logging.Info("Stopped watching; abandoning job trackers")
			cancel()
		}
		if runErr := <-done; runErr != nil {
			return runErr
		}
		if err != nil {
			return err
		}
		if detached {
			s.printer.Println(ui.MutedStyle.Render("Stopped watching. Jobs already enqueued keep running on the devices."))
		}
	} else {
		stream.OnEvent(s.printer.EventListener())

		run, err := engine.Dispatch(ctx, op, devices, params)
		if err != nil {
			return err
		}
		logging.Debug("Waiting for run", zap.String("run_id", run.ID))
		run.Wait()
	}

	summary := stream.Summary()
	s.printer.PrintSummary(op.Name, summary)

	if summary.Failed > 0 {
		return &reportedError{err: fmt.Errorf("%d of %d device(s) failed", summary.Failed, len(devices))}
	}
	return nil
}
