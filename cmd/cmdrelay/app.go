// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"

	"github.com/holomush/cmdrelay/internal/config"
	"github.com/holomush/cmdrelay/internal/diag"
	"github.com/holomush/cmdrelay/internal/host"
	"github.com/holomush/cmdrelay/internal/module"
	"github.com/holomush/cmdrelay/internal/module/goso"
	"github.com/holomush/cmdrelay/internal/module/lua"
	"github.com/holomush/cmdrelay/internal/observability"
	"github.com/holomush/cmdrelay/internal/relay"
	"github.com/holomush/cmdrelay/internal/resolver"
	"github.com/holomush/cmdrelay/internal/xdg"
	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/command"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

// RelayCommandName is the name the relay is registered under.
const RelayCommandName = "relay"

// app wires a host engine with the relay registered in it.
type app struct {
	engine  *host.Engine
	relay   *relay.Command
	metrics *observability.Server
	logger  *slog.Logger

	// ready is set once the engine accepts lines.
	ready atomic.Bool
}

func newApp(cfg *config.Config, out io.Writer, logger *slog.Logger) (*app, error) {
	console := host.NewConsole(out, logger)
	engine := host.New(host.Options{
		Console:   console,
		UndoLimit: cfg.UndoLimit,
		Logger:    logger,
	})

	tracer, err := diag.New(console, diag.Options{
		Enabled: cfg.Diagnostics.Trace,
		Filters: cfg.Diagnostics.Filters,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	luaLoader, err := lua.NewLoaderWithConstraint(cfg.APIConstraint)
	if err != nil {
		return nil, err
	}
	loader := module.NewMux().
		Handle(lua.Extension, luaLoader).
		Handle(goso.Extension, goso.NewLoader()).
		Fallback(luaLoader)

	modulesDir := cfg.ModulesDir
	if modulesDir == "" {
		if dir, err := xdg.ModulesDir(); err == nil {
			modulesDir = dir
		}
	}

	r := relay.New(relay.Options{
		Resolver: resolver.New(resolver.Options{
			EnvVar:    cfg.SearchPathEnv,
			Extension: cfg.Extension,
			Suffix:    cfg.ModuleSuffix,
			Fallback:  []string{modulesDir},
		}),
		Loader:      loader,
		Console:     console,
		Diagnostics: tracer,
		Tracer:      otel.Tracer("github.com/holomush/cmdrelay"),
		Logger:      logger,
	})

	if err := engine.Register(RelayCommandName, func() host.Command { return r.NewInvocation() }); err != nil {
		return nil, err
	}
	if err := engine.Register("echo", host.Adapt(console, func() command.Command { return echo{} })); err != nil {
		return nil, err
	}

	a := &app{engine: engine, relay: r, logger: logger}
	if cfg.MetricsAddr != "" {
		a.metrics = observability.NewServer(observability.Options{
			Addr:     cfg.MetricsAddr,
			Ready:    a.ready.Load,
			Register: []observability.RegisterFunc{relay.RegisterMetrics},
			Logger:   logger,
		})
	}
	return a, nil
}

// start starts the metrics server, if configured. Serve errors are logged.
func (a *app) start() error {
	if a.metrics != nil {
		errCh, err := a.metrics.Start()
		if err != nil {
			return err
		}
		go func() {
			for err := range errCh {
				errutil.LogError(context.Background(), a.logger, "metrics server failed", err)
			}
		}()
	}
	a.ready.Store(true)
	return nil
}

// execute runs one line. Blank lines and "//" comments are skipped.
func (a *app) execute(ctx context.Context, line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return nil
	}
	a.engine.Console().Echo(trimmed)
	return a.engine.Execute(ctx, trimmed)
}

// close unloads any loaded module and stops the metrics server.
func (a *app) close(ctx context.Context) error {
	err := a.relay.Close(ctx)
	if a.metrics != nil {
		if stopErr := a.metrics.Stop(ctx); stopErr != nil {
			a.logger.Warn("error stopping metrics server", "error", stopErr)
		}
	}
	return err
}

// echo sets its arguments, space separated, as the result.
type echo struct{}

func (echo) DoIt(c command.Console, l args.List) error {
	parts := make([]string, 0, len(l))
	for _, v := range l {
		if v.Kind() == args.KindString {
			parts = append(parts, v.Str())
			continue
		}
		parts = append(parts, v.String())
	}
	c.SetResult(strings.Join(parts, " "))
	return nil
}

func (echo) UndoIt(command.Console) error { return nil }

func (echo) IsUndoable() bool { return false }
