package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/fwfleet/internal/config"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/version"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	manager    string
	username   string
	configPath string
	timeout    time.Duration
	logLevel   string

	// Loaded in PersistentPreRunE, with flag overrides applied
	cfg *config.Config

	// Overridable for tests
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&globalOptions{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	})
}

func newRootCmdWithOptions(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fwfleet",
		Short: "Firewall fleet operations through a management server",
		Long: `Dispatch operational commands to many firewalls through their
management server's XML API, and track the jobs they produce.

The manager address and username come from the config file
(see 'fwfleet config init') or from --manager and --username.
The password is read from FWFLEET_PASSWORD or prompted for.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.manager, "manager", "", "Management server address (host, host:port or URL)")
	flags.StringVarP(&opts.username, "username", "u", "", "API username")
	flags.StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/fwfleet/config.yaml)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout (default 30s)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default silent)")

	rootCmd.AddCommand(
		newDevicesCmd(opts),
		newVersionsCmd(opts),
		newJobCmd(opts, "download"),
		newJobCmd(opts, "install"),
		newRebootCmd(opts),
		newRunCmd(opts),
		newOpsCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)

	return rootCmd
}

// load reads the config file, applies flag overrides, and starts logging
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("manager") {
		cfg.Manager.Address = o.manager
	}
	if flags.Changed("username") {
		cfg.Manager.Username = o.username
	}
	if flags.Changed("timeout") {
		cfg.Manager.Timeout = o.timeout
	}

	logOpts := cfg.LoggingOptions()
	if flags.Changed("log-level") {
		logOpts.Level = o.logLevel
	}
	if err := logging.InitializeWithOptions(logOpts); err != nil {
		return err
	}

	o.cfg = cfg
	return nil
}

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(opts.stdout, "fwfleet %s\n", version.Full())
		},
	}
}
