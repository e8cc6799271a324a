// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/cmdrelay/internal/logging"
)

// runConfig holds the run command's own flags.
type runConfig struct {
	file      string
	keepGoing bool
}

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	rc := &runConfig{}

	cmd := &cobra.Command{
		Use:   "run [lines...]",
		Short: "Execute command lines",
		Long: `Execute command lines given as arguments, read from a script file, or
read from standard input, one line at a time. Lines may hold several
statements separated by ';'.

Arguments and script files stop at the first failed line unless
--keep-going is set. A session on standard input always keeps going; the
exit status still reports whether any line failed.

  cmdrelay run 'relay -load Foo' 'relay -doIt bar 1 2' 'undo' 'relay -unload'`,
		RunE: func(cmd *cobra.Command, lines []string) error {
			return runLines(cmd, rc, lines)
		},
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().StringVarP(&rc.file, "file", "f", "", "read command lines from a script file")
	cmd.Flags().BoolVar(&rc.keepGoing, "keep-going", false, "continue after a failed line (always on for stdin)")

	return cmd
}

func runLines(cmd *cobra.Command, rc *runConfig, lines []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.SetDefault(logging.Options{
		Service: "cmdrelay",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})

	a, err := newApp(cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	if err := a.start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := feed(ctx, a, rc, lines, cmd.InOrStdin())

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.close(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// feed executes lines from the first available source: arguments, the
// script file, then stdin.
func feed(ctx context.Context, a *app, rc *runConfig, lines []string, stdin io.Reader) error {
	if len(lines) > 0 {
		return executeAll(ctx, a, rc.keepGoing, func(yield func(string) bool) error {
			for _, line := range lines {
				if !yield(line) {
					return nil
				}
			}
			return nil
		})
	}

	in, keepGoing := stdin, true
	if rc.file != "" {
		f, err := os.Open(rc.file)
		if err != nil {
			return oops.In("cli").With("file", rc.file).Wrapf(err, "open script")
		}
		defer func() { _ = f.Close() }()
		in, keepGoing = f, rc.keepGoing
	}

	return executeAll(ctx, a, keepGoing, func(yield func(string) bool) error {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return nil
			}
		}
		if err := scanner.Err(); err != nil {
			return oops.In("cli").Wrapf(err, "read command lines")
		}
		return nil
	})
}

// executeAll runs each line from source. Unless keepGoing is set, the first
// failed line stops the run. The first failure is returned either way.
func executeAll(ctx context.Context, a *app, keepGoing bool, source func(yield func(string) bool) error) error {
	var failed error
	err := source(func(line string) bool {
		if ctx.Err() != nil {
			return false
		}
		if err := a.execute(ctx, line); err != nil {
			if failed == nil {
				failed = err
			}
			return keepGoing
		}
		return true
	})
	if err != nil {
		return err
	}
	if failed != nil {
		return oops.In("cli").Wrapf(failed, "command failed")
	}
	return nil
}
