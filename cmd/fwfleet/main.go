// Fwfleet drives a fleet of firewalls through their management server's
// XML API.
//
// It lists the devices connected to the manager, checks available software
// versions, and dispatches operations (download, install, reboot) to many
// devices at once. Operations the manager runs as background jobs are
// tracked until they finish.
//
// Usage:
//
//	fwfleet [command] [flags]
//
// See 'fwfleet --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/muurk/fwfleet/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// reportedError is an error already shown to the user in a result box
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }
