package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/ui"
)

// targetFlags select the devices an operation is dispatched to
type targetFlags struct {
	targets []string
	all     bool
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.targets, "target", "t", nil, "Device serial (repeatable, or comma-separated)")
	cmd.Flags().BoolVar(&f.all, "all", false, "Target every device connected to the manager")
}

func newDevicesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices connected to the manager",
		Long: `List the devices currently connected to the manager, sorted by hostname.

Hostnames are recorded in the config file so later commands can label
devices given by serial without asking the manager again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}

			devices, err := s.refreshDevices(cmd.Context())
			if err != nil {
				return s.fail("Listing connected devices", err)
			}

			s.printer.PrintDevices(devices)
			return nil
		},
	}
}

func newVersionsCmd(opts *globalOptions) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Run a software version check on one device",
		Example: `  fwfleet versions --target 007051000123456`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}

			device := s.inventory.Lookup(target)
			versions, err := s.client.CheckSoftware(cmd.Context(), target)
			if err != nil {
				return s.fail("Software version check on "+device.Label(), err)
			}

			s.printer.PrintVersions(device, versions)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Device serial")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

// newJobCmd builds the download and install commands
func newJobCmd(opts *globalOptions, key string) *cobra.Command {
	var (
		targets          targetFlags
		swVersion        string
		skipVersionCheck bool
		watch            bool
	)

	cmd := &cobra.Command{
		Use:   key,
		Short: fmt.Sprintf("%s a software version on devices", titleCase(key)),
		Long: fmt.Sprintf(`%s a software version on one or more devices.

The version must appear in the version list the manager returns for the
first target (run 'fwfleet versions' to see it) unless --skip-version-check
is given. Each device gets its own job; jobs are tracked until they finish.`, titleCase(key)),
		Example: fmt.Sprintf(`  fwfleet %[1]s --version 10.2.3 --target 007051000123456
  fwfleet %[1]s --version 10.2.3 --all --watch`, key),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := lookupOperation(key)
			if err != nil {
				return err
			}
			params := catalog.Params{Version: swVersion}
			if err := op.Check(params); err != nil {
				return err
			}

			s, err := newSession(opts)
			if err != nil {
				return err
			}

			devices, err := s.resolveTargets(cmd.Context(), targets.targets, targets.all)
			if err != nil {
				return err
			}

			if !skipVersionCheck {
				if err := s.checkVersion(cmd.Context(), devices[0], swVersion); err != nil {
					return err
				}
			}

			return s.execute(cmd.Context(), op, devices, params, watch)
		},
	}

	targets.register(cmd)
	cmd.Flags().StringVar(&swVersion, "version", "", "Software version (e.g., 10.2.3)")
	cmd.Flags().BoolVar(&skipVersionCheck, "skip-version-check", false, "Do not verify the version against the manager's list")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Show a live progress board")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func newRebootCmd(opts *globalOptions) *cobra.Command {
	var (
		targets targetFlags
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "reboot",
		Short: "Reboot devices",
		Example: `  fwfleet reboot --target 007051000123456
  fwfleet reboot --all --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := lookupOperation(catalog.KeyReboot)
			if err != nil {
				return err
			}

			s, err := newSession(opts)
			if err != nil {
				return err
			}

			devices, err := s.resolveTargets(cmd.Context(), targets.targets, targets.all)
			if err != nil {
				return err
			}

			if !yes && !ui.RebootConfirmation(opts.stdin, opts.stdout, devices) {
				return nil
			}

			return s.execute(cmd.Context(), op, devices, catalog.Params{}, false)
		},
	}

	targets.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		targets          targetFlags
		swVersion        string
		skipVersionCheck bool
		yes              bool
		watch            bool
	)

	cmd := &cobra.Command{
		Use:   "run <operation>",
		Short: "Dispatch any catalog operation",
		Long: `Dispatch any user-facing catalog operation (see 'fwfleet ops').

Operations that take a version check it against the manager's version
list for the first target, as the download and install commands do.`,
		Example: `  fwfleet run check --all
  fwfleet run download --version 10.2.3 --target 007051000123456`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			cat, err := catalog.Load()
			if err != nil || len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return cat.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := lookupOperation(args[0])
			if err != nil {
				return err
			}
			params := catalog.Params{Version: swVersion}
			if err := op.Check(params); err != nil {
				return err
			}

			s, err := newSession(opts)
			if err != nil {
				return err
			}

			devices, err := s.resolveTargets(cmd.Context(), targets.targets, targets.all)
			if err != nil {
				return err
			}

			if op.RequiresParam(catalog.ParamVersion) && !skipVersionCheck {
				if err := s.checkVersion(cmd.Context(), devices[0], swVersion); err != nil {
					return err
				}
			}

			if op.Dangerous && !yes {
				confirmed := ui.ConfirmDangerousOperation(opts.stdin, opts.stdout,
					strings.ToUpper(op.Name),
					[]string{fmt.Sprintf("'%s' will be sent to %d device(s)", op.Name, len(devices))},
					"",
				)
				if !confirmed {
					return nil
				}
			}

			return s.execute(cmd.Context(), op, devices, params, watch)
		},
	}

	targets.register(cmd)
	cmd.Flags().StringVar(&swVersion, "version", "", "Software version, for operations that need one")
	cmd.Flags().BoolVar(&skipVersionCheck, "skip-version-check", false, "Do not verify the version against the manager's list")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt for dangerous operations")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Show a live progress board")
	return cmd
}

func newOpsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the operations that can be dispatched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load()
			if err != nil {
				return err
			}
			ui.NewPrinter(opts.stdout).PrintOperations(cat.Operations())
			return nil
		},
	}
}

// lookupOperation finds a user-facing operation by key or name
func lookupOperation(key string) (*catalog.Operation, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, err
	}

	op, ok := cat.Get(key)
	if !ok {
		op, ok = cat.ByName(key)
	}
	if !ok || op.Internal {
		return nil, fmt.Errorf("unknown operation %q (available: %s)", key, strings.Join(cat.Keys(), ", "))
	}
	return op, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
