// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/holomush/cmdrelay/internal/config"
	"github.com/holomush/cmdrelay/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the cmdrelay CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmdrelay",
		Short: "cmdrelay - hot-load, invoke and unload command modules",
		Long: `cmdrelay hosts a command system with undo and redo. Its relay command
loads a command module into an isolated boundary, forwards invocations to
it and unloads it again without restarting the host.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/cmdrelay/cmdrelay.yaml)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cmdrelay version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cmdrelay "+versionString())
		},
	}
}

// addConfigFlags registers the flags that map onto config keys. Their
// defaults are the built-in configuration.
func addConfigFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.String("search-path-env", d.SearchPathEnv, "environment variable holding the module search path")
	fs.String("modules-dir", "", "directory searched after the search path (default: XDG_DATA_HOME/cmdrelay/modules)")
	fs.String("extension", d.Extension, "primary module file extension")
	fs.String("module-suffix", d.ModuleSuffix, "module-type suffix inserted before the extension")
	fs.String("api-constraint", d.APIConstraint, "semver constraint on a module's api_version")
	fs.Int("undo-limit", d.UndoLimit, "maximum undo depth")
	fs.String("log-format", d.LogFormat, "log format (json or text)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn or error)")
	fs.String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	fs.Bool("trace", false, "print a trace line on every relay and container entry point")
	fs.StringSlice("trace-filter", nil, "glob patterns selecting traced entry points")
}

// loadConfig reads the config file named by --config, or the default file
// if it exists, and applies the command's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	src := config.Source{Path: configFile, Explicit: configFile != ""}
	if !src.Explicit {
		if path, err := xdg.ConfigFile(); err == nil {
			src.Path = path
		}
	}
	return config.Load(src, cmd.Flags())
}
