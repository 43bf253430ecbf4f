package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/panapi"
	"github.com/muurk/fwfleet/internal/ui"
)

// session is an authenticated connection to the manager for one command
type session struct {
	opts       *globalOptions
	client     *panapi.Client
	classifier *panapi.Classifier
	printer    *ui.Printer
	inventory  *fleet.Inventory
}

// newSession validates the manager settings and reads the password
func newSession(opts *globalOptions) (*session, error) {
	cfg := opts.cfg
	if cfg.Manager.Address == "" {
		return nil, fmt.Errorf("no manager configured: use --manager or 'fwfleet config init'")
	}

	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	password, err := ui.ReadPassword(opts.stdin, opts.stderr, cfg.Manager.Username)
	if err != nil {
		return nil, err
	}

	classifier := panapi.NewClassifier(rules...)
	client := panapi.NewClient(cfg.Manager.Address)
	client.SetAuth(cfg.Manager.Username, password)
	client.SetTimeout(cfg.Manager.Timeout)
	client.Classifier = classifier

	logging.Debug("Session ready",
		zap.String("manager", client.BaseURL),
		zap.String("username", cfg.Manager.Username),
		zap.Duration("timeout", cfg.Manager.Timeout),
	)

	return &session{
		opts:       opts,
		client:     client,
		classifier: classifier,
		printer:    ui.NewPrinter(opts.stdout),
		inventory:  fleet.NewInventory(cfg.KnownDevices()...),
	}, nil
}

// fail prints err in a failure box and marks it as reported
func (s *session) fail(title string, err error) error {
	s.printer.PrintError(title, err)
	return &reportedError{err: err}
}

// refreshDevices fetches the connected-device list, replaces the inventory
// and records hostnames in the config file
func (s *session) refreshDevices(ctx context.Context) ([]fleet.Device, error) {
	devices, err := s.client.ConnectedDevices(ctx)
	if err != nil {
		return nil, err
	}

	s.inventory.Replace(devices...)

	cfg := s.opts.cfg
	cfg.RecordDevices(devices)
	if err := cfg.Save(s.opts.configPath); err != nil {
		logging.Warn("Could not record devices in config file", zap.Error(err))
	}
	return devices, nil
}

// resolveTargets turns --target/--all into a device list. Hostnames come
// from the recorded inventory; the manager is only asked for its device
// list when --all is set or a target is not yet known.
func (s *session) resolveTargets(ctx context.Context, targets []string, all bool) ([]fleet.Device, error) {
	switch {
	case all && len(targets) > 0:
		return nil, fmt.Errorf("--all and --target are mutually exclusive")
	case !all && len(targets) == 0:
		return nil, fmt.Errorf("no devices selected: use --target <serial> or --all")
	}

	if all {
		devices, err := s.refreshDevices(ctx)
		if err != nil {
			return nil, s.fail("Listing connected devices", err)
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("the manager reports no connected devices")
		}
		return devices, nil
	}

	devices, unknown := s.inventory.Resolve(splitTargets(targets))
	if len(unknown) == 0 {
		return devices, nil
	}

	if _, err := s.refreshDevices(ctx); err != nil {
		return nil, s.fail("Listing connected devices", err)
	}
	devices, unknown = s.inventory.Resolve(splitTargets(targets))
	for _, serial := range unknown {
		logging.Warn("Target is not in the connected-device list", zap.String("serial", serial))
		_, _ = fmt.Fprintln(s.opts.stderr, ui.WarningTitleStyle.Render(
			ui.WarningMarker+" "+serial+" is not connected to the manager; sending anyway"))
	}
	return devices, nil
}

// splitTargets accepts repeated and comma-separated --target values
func splitTargets(targets []string) []string {
	var out []string
	for _, t := range targets {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
