package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/fwfleet/internal/config"
	"github.com/muurk/fwfleet/internal/ui"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(opts), newConfigShowCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		Example: `  fwfleet config init --manager panorama.example.com --username automation`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Exists(opts.configPath) && !force {
				return fmt.Errorf("config file already exists (use --force to overwrite)")
			}

			if err := opts.cfg.Save(opts.configPath); err != nil {
				return err
			}

			path := opts.configPath
			if path == "" {
				path, _ = config.GetConfigPath()
			}
			result := ui.NewSuccessResult("Config file written", ui.Param{Key: "Path", Value: path})
			if opts.cfg.Manager.Address != "" {
				result.AddDetail("Manager", opts.cfg.Manager.Address)
			}
			result.AddDetail("Username", opts.cfg.Manager.Username)
			ui.NewPrinter(opts.stdout).PrintResult(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(opts.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, _ = opts.stdout.Write(data)
			return nil
		},
	}
}
