// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package relay implements the host-facing relay command.
//
// The relay hot-loads one module into a fresh isolation boundary, forwards
// named invocations into it and tears it down again, all without
// restarting the host. It holds at most one boundary at a time.
//
// Undoability is two-phase. The host asks DeclaredUndoable right after
// constructing an invocation, before any module is loaded, so the relay
// always answers true; UndoIt then asks the container whether the last
// invocation is actually undoable before forwarding.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/cmdrelay/internal/boundary"
	"github.com/holomush/cmdrelay/internal/container"
	"github.com/holomush/cmdrelay/internal/diag"
	"github.com/holomush/cmdrelay/internal/module"
	"github.com/holomush/cmdrelay/internal/resolver"
	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/command"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

// CodeInvokeBeforeLoad is returned for invoke, undo and redo without a
// loaded module.
const CodeInvokeBeforeLoad = "INVOKE_BEFORE_LOAD"

// Options configures a relay Command.
type Options struct {
	Resolver *resolver.Resolver
	Loader   module.Loader
	// Console receives results and messages from the relay and from every
	// module it loads.
	Console command.Console
	// Diagnostics traces relay and container entry points. May be nil.
	Diagnostics *diag.Tracer
	// Tracer is handed to each boundary for its call spans.
	Tracer trace.Tracer
	Logger *slog.Logger
}

// Command is the relay coordinator. It owns the current boundary and the
// short name of the loaded module.
//
// Command is not safe for concurrent use; the host drives it serially.
type Command struct {
	resolver *resolver.Resolver
	loader   module.Loader
	console  command.Console
	diag     *diag.Tracer
	tracer   trace.Tracer
	logger   *slog.Logger

	handle *boundary.Handle
	name   string
}

// New creates an unloaded relay.
// Panics if opts.Loader is nil.
func New(opts Options) *Command {
	if opts.Loader == nil {
		panic("relay: loader cannot be nil")
	}
	r := &Command{
		resolver: opts.Resolver,
		loader:   opts.Loader,
		console:  opts.Console,
		diag:     opts.Diagnostics,
		tracer:   opts.Tracer,
		logger:   opts.Logger,
	}
	if r.resolver == nil {
		r.resolver = resolver.New(resolver.Options{})
	}
	if r.console == nil {
		r.console = command.Discard
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// DeclaredUndoable is what the relay reports to the host's undo machinery.
// It is always true.
func (r *Command) DeclaredUndoable() bool { return true }

// Loaded reports whether a boundary is live.
func (r *Command) Loaded() bool { return r.handle != nil }

// Name returns the short name of the loaded module, or "" when unloaded.
func (r *Command) Name() string { return r.name }

// Boundary returns the live boundary, or nil when unloaded.
func (r *Command) Boundary() *boundary.Handle { return r.handle }

// Load creates a boundary, resolves name on the search path and loads the
// module into it. The result is the module's short name, or "" if nothing
// was loaded.
//
// A resolution failure destroys the new boundary and leaves the relay
// unloaded. A failure to load or initialize the resolved module keeps the
// boundary, so the caller must still unload.
func (r *Command) Load(ctx context.Context, name string) error {
	r.diag.Enter((*Command).Load)

	if r.handle != nil {
		r.console.DisplayInfo(name + " is already loaded")
		r.console.SetResult("")
		RecordOperation(OpLoad, StatusNoop)
		return nil
	}

	start := time.Now()
	h := r.newBoundary()

	path, err := r.resolver.Find(name)
	if err != nil {
		r.console.SetResult("")
		r.destroy(ctx, h)
		RecordOperation(OpLoad, StatusError)
		return err
	}

	r.handle = h
	r.name = shortName(name)
	r.logger.InfoContext(ctx, "loading module",
		"module", r.name,
		"path", path,
		"boundary", h.Name())

	if err := h.LoadModule(ctx, path); err != nil {
		r.console.SetResult("")
		RecordOperation(OpLoad, StatusError)
		return err
	}
	if err := h.InitializePlugin(ctx); err != nil {
		r.console.SetResult("")
		RecordOperation(OpLoad, StatusError)
		return err
	}

	r.console.SetResult(r.name)
	RecordOperation(OpLoad, StatusSuccess)
	RecordLoadDuration(time.Since(start))
	return nil
}

// Invoke forwards a named invocation with its arguments to the loaded
// module. The module sets the result itself; its failures are reported
// inside the boundary and never returned here.
func (r *Command) Invoke(ctx context.Context, name string, l args.List) error {
	r.diag.Enter((*Command).Invoke)

	if r.handle == nil {
		RecordOperation(OpInvoke, StatusError)
		return oops.In("relay").
			Code(CodeInvokeBeforeLoad).
			With("command", name).
			Errorf("the plugin contains %s is already unloaded", name)
	}

	encoded, err := args.Encode(l)
	if err != nil {
		RecordOperation(OpInvoke, StatusError)
		return oops.In("relay").With("command", name).Wrapf(err, "encode arguments")
	}
	if err := r.handle.Invoke(ctx, name, encoded); err != nil {
		RecordOperation(OpInvoke, StatusError)
		return err
	}
	RecordOperation(OpInvoke, StatusSuccess)
	return nil
}

// RedoIt forwards a redo to the loaded module.
func (r *Command) RedoIt(ctx context.Context) error {
	r.diag.Enter((*Command).RedoIt)

	if r.handle == nil {
		RecordOperation(OpRedo, StatusError)
		return errBeforeLoad("redoIt")
	}
	if err := r.handle.Redo(ctx); err != nil {
		RecordOperation(OpRedo, StatusError)
		return err
	}
	RecordOperation(OpRedo, StatusSuccess)
	return nil
}

// UndoIt forwards an undo to the loaded module if its last invocation is
// undoable, and does nothing otherwise.
func (r *Command) UndoIt(ctx context.Context) error {
	r.diag.Enter((*Command).UndoIt)

	if r.handle == nil {
		RecordOperation(OpUndo, StatusError)
		return errBeforeLoad("undoIt")
	}

	undoable, err := r.handle.IsUndoable(ctx)
	if err != nil {
		RecordOperation(OpUndo, StatusError)
		return err
	}
	if !undoable {
		RecordOperation(OpUndo, StatusNoop)
		return nil
	}
	if err := r.handle.Undo(ctx); err != nil {
		RecordOperation(OpUndo, StatusError)
		return err
	}
	RecordOperation(OpUndo, StatusSuccess)
	return nil
}

// Unload uninitializes the module's plugin and destroys the boundary. The
// result is the unloaded module's short name, or "" if nothing was loaded.
func (r *Command) Unload(ctx context.Context) error {
	r.diag.Enter((*Command).Unload)

	if r.handle == nil {
		r.console.DisplayInfo("the plugin is already unloaded")
		r.console.SetResult("")
		RecordOperation(OpUnload, StatusNoop)
		return nil
	}

	h, name := r.handle, r.name
	r.handle, r.name = nil, ""

	var errs []error
	if err := h.UninitializePlugin(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := r.destroy(ctx, h); err != nil {
		errs = append(errs, err)
	}

	r.logger.InfoContext(ctx, "module unloaded", "module", name, "boundary", h.Name())
	r.console.SetResult(name)

	if len(errs) > 0 {
		RecordOperation(OpUnload, StatusError)
		return errors.Join(errs...)
	}
	RecordOperation(OpUnload, StatusSuccess)
	return nil
}

// Info displays the state of the loaded module. The result is the
// module's short name, or "" when nothing is loaded.
func (r *Command) Info(ctx context.Context) error {
	r.diag.Enter((*Command).Info)

	if r.handle == nil {
		r.console.DisplayInfo("no plugin is loaded")
		r.console.SetResult("")
		RecordOperation(OpInfo, StatusNoop)
		return nil
	}

	info, err := r.handle.Info(ctx)
	if err != nil {
		RecordOperation(OpInfo, StatusError)
		return err
	}
	for _, line := range describe(r.name, r.handle.Name(), info) {
		r.console.DisplayInfo(line)
	}
	r.console.SetResult(r.name)
	RecordOperation(OpInfo, StatusSuccess)
	return nil
}

// Close destroys the live boundary, if any, without reporting a result.
// The host calls it on shutdown.
func (r *Command) Close(ctx context.Context) error {
	if r.handle == nil {
		return nil
	}
	h := r.handle
	r.handle, r.name = nil, ""
	return r.destroy(ctx, h)
}

func (r *Command) newBoundary() *boundary.Handle {
	console := countingConsole{Console: r.console}
	h := boundary.New(func() *container.Container {
		return container.New(container.Options{
			Loader:  r.loader,
			Console: console,
			Tracer:  r.diag,
			Logger:  r.logger,
		})
	}, boundary.Options{Tracer: r.tracer, Logger: r.logger})
	ActiveBoundaries.Inc()
	return h
}

func (r *Command) destroy(ctx context.Context, h *boundary.Handle) error {
	err := h.Close(ctx)
	ActiveBoundaries.Dec()
	if err != nil {
		errutil.LogError(ctx, r.logger, "boundary close failed", err)
	}
	return err
}

func describe(name, boundaryName string, info container.Info) []string {
	lines := []string{
		"module: " + name + " (" + info.Module + ")",
		"boundary: " + boundaryName,
	}
	if info.APIVersion != "" {
		lines = append(lines, "api_version: "+info.APIVersion)
	}
	if info.PluginType != "" {
		state := "inactive"
		if info.PluginActive {
			state = "active"
		}
		lines = append(lines, "plugin: "+info.PluginType+" ("+state+")")
	}
	if info.CommandType != "" {
		lines = append(lines, "command: "+info.CommandType)
	}
	return lines
}

// shortName is the text before the first '.' of a module name.
func shortName(name string) string {
	short, _, _ := strings.Cut(name, ".")
	return short
}

func errBeforeLoad(op string) error {
	return oops.In("relay").
		Code(CodeInvokeBeforeLoad).
		With("operation", op).
		Errorf("cannot call %s() before load", op)
}

// countingConsole counts errors reported from inside the boundary.
type countingConsole struct {
	command.Console
}

func (c countingConsole) DisplayError(msg string) {
	ContainerErrors.Inc()
	c.Console.DisplayError(msg)
}
