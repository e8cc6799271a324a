// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package container implements the boundary-resident host for one loaded
// module. It discovers the module's extension plugin and command types,
// owns at most one live instance of each, and runs every do/undo/redo
// inside a local failure boundary so that command errors never propagate
// to the caller.
//
// A Container is not safe for concurrent use; the boundary that owns it
// serializes every call.
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/internal/diag"
	"github.com/holomush/cmdrelay/internal/module"
	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/command"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

// Error codes reported by the container.
const (
	CodeCommandExecutionFailure = "COMMAND_EXECUTION_FAILURE"
	CodeNoModule                = "NO_MODULE"
)

// Options configures a Container.
type Options struct {
	Loader  module.Loader
	Console command.Console
	Tracer  *diag.Tracer
	Logger  *slog.Logger
}

// Container hosts one loaded module.
type Container struct {
	loader  module.Loader
	console command.Console
	tracer  *diag.Tracer
	logger  *slog.Logger

	mod module.Module

	pluginType module.Type
	plugin     command.ExtensionPlugin

	// commandType is discovered on the first Invoke and kept for the
	// container's lifetime, whatever command name later calls ask for.
	commandType module.Type
	cmd         command.Command

	lastCommand string
	invocations int
	undoable    bool
}

// New creates an empty container.
// Panics if opts.Loader is nil.
func New(opts Options) *Container {
	if opts.Loader == nil {
		panic("container: loader cannot be nil")
	}
	c := &Container{
		loader:  opts.Loader,
		console: opts.Console,
		tracer:  opts.Tracer,
		logger:  opts.Logger,
	}
	if c.console == nil {
		c.console = command.Discard
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// LoadModule loads the unit at path. Its contents are not inspected until
// InitializePlugin or Invoke.
func (c *Container) LoadModule(ctx context.Context, path string) error {
	c.tracer.Enter((*Container).LoadModule)

	if c.mod != nil {
		return oops.In("container").
			Code(module.CodeLoadFailure).
			With("path", path).
			With("loaded", c.mod.Path()).
			Errorf("module %s is already loaded", c.mod.Path())
	}

	mod, err := c.loader.Load(ctx, path, c.console)
	if err != nil {
		return oops.In("container").
			Code(module.CodeLoadFailure).
			With("path", path).
			Wrap(err)
	}
	c.mod = mod

	c.logger.DebugContext(ctx, "module loaded",
		"path", path,
		"types", len(mod.Types()))
	return nil
}

// InitializePlugin constructs the module's extension plugin and calls its
// initialize hook. It is a no-op if the plugin is already initialized or if
// the module declares no extension plugin type.
func (c *Container) InitializePlugin(ctx context.Context) error {
	c.tracer.Enter((*Container).InitializePlugin)

	if c.plugin != nil {
		return nil
	}
	if c.mod == nil {
		return errNoModule("initialize plugin")
	}

	if c.pluginType == nil {
		t, err := module.Scan(c.mod, command.ExtensionPluginType)
		if err != nil {
			c.logger.DebugContext(ctx, "module has no extension plugin",
				"path", c.mod.Path())
			return nil
		}
		c.pluginType = t
	}

	plugin, err := module.Instantiate[command.ExtensionPlugin](c.pluginType)
	if err != nil {
		return err
	}
	if err := plugin.InitializePlugin(c.console); err != nil {
		return oops.In("container").
			With("type", c.pluginType.Name()).
			Wrapf(err, "initialize %s", c.pluginType.Name())
	}
	c.plugin = plugin
	return nil
}

// UninitializePlugin calls the plugin's uninitialize hook and drops the
// instance. It is a no-op if no plugin is initialized.
func (c *Container) UninitializePlugin(ctx context.Context) error {
	c.tracer.Enter((*Container).UninitializePlugin)

	if c.plugin == nil {
		return nil
	}
	plugin := c.plugin
	c.plugin = nil
	if err := plugin.UninitializePlugin(c.console); err != nil {
		return oops.In("container").
			With("type", c.pluginType.Name()).
			Wrapf(err, "uninitialize %s", c.pluginType.Name())
	}
	c.logger.DebugContext(ctx, "plugin uninitialized", "type", c.pluginType.Name())
	return nil
}

// Invoke runs a fresh instance of the module's command type with the
// encoded arguments. The name is kept for diagnostics only; the command
// type is whichever the first Invoke discovered. Failures are reported to
// the console and never returned.
func (c *Container) Invoke(ctx context.Context, name string, encoded []byte) {
	c.tracer.Enter((*Container).Invoke)

	c.lastCommand = name
	// Cleared up front: every path below either replaces or drops the
	// current instance, so a flag from an earlier invoke would describe a
	// command Undo can no longer reach.
	c.undoable = false

	if c.mod == nil {
		c.report(ctx, "doIt", errNoModule("invoke "+name))
		return
	}

	if c.commandType == nil {
		t, err := module.Scan(c.mod, command.CommandType)
		if err != nil {
			c.report(ctx, "doIt", err)
			return
		}
		c.commandType = t
	}

	cmd, err := module.Instantiate[command.Command](c.commandType)
	if err != nil {
		c.cmd = nil
		c.report(ctx, "doIt", err)
		return
	}
	c.cmd = cmd

	l, err := args.Decode(encoded)
	if err != nil {
		c.report(ctx, "doIt", err)
		return
	}

	c.invocations++
	if !c.guard(ctx, "doIt", func() error { return cmd.DoIt(c.console, l) }) {
		return
	}
	c.guard(ctx, "isUndoable", func() error {
		c.undoable = cmd.IsUndoable()
		return nil
	})
}

// Redo runs the current command's redo if it supports one.
func (c *Container) Redo(ctx context.Context) {
	c.tracer.Enter((*Container).Redo)

	redoer, ok := c.cmd.(command.Redoer)
	if !ok {
		return
	}
	c.guard(ctx, "redoIt", func() error { return redoer.RedoIt(c.console) })
}

// Undo runs the current command's undo.
func (c *Container) Undo(ctx context.Context) {
	c.tracer.Enter((*Container).Undo)

	if c.cmd == nil {
		return
	}
	cmd := c.cmd
	c.guard(ctx, "undoIt", func() error { return cmd.UndoIt(c.console) })
}

// IsUndoable reports whether the last invocation completed and its command
// declared itself undoable.
func (c *Container) IsUndoable() bool {
	c.tracer.Enter((*Container).IsUndoable)
	return c.undoable
}

// Info is a snapshot of the container state.
type Info struct {
	Module       string
	APIVersion   string
	PluginType   string
	PluginActive bool
	CommandType  string
	LastCommand  string
	Invocations  int
	Undoable     bool
}

// Info returns a snapshot of the container state.
func (c *Container) Info() Info {
	info := Info{
		PluginActive: c.plugin != nil,
		LastCommand:  c.lastCommand,
		Invocations:  c.invocations,
		Undoable:     c.undoable,
	}
	if c.mod != nil {
		info.Module = c.mod.Path()
		if v, ok := c.mod.(module.Versioned); ok {
			info.APIVersion = v.APIVersion()
		}
	}
	if c.pluginType != nil {
		info.PluginType = c.pluginType.Name()
	}
	if c.commandType != nil {
		info.CommandType = c.commandType.Name()
	}
	return info
}

// Close uninitializes the plugin, drops the command instance and closes the
// module. The container can load another module afterwards.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if err := c.UninitializePlugin(ctx); err != nil {
		errs = append(errs, err)
	}
	c.cmd = nil
	c.undoable = false
	c.pluginType = nil
	c.commandType = nil
	if c.mod != nil {
		if err := c.mod.Close(); err != nil {
			errs = append(errs, oops.In("container").With("path", c.mod.Path()).Wrapf(err, "close module"))
		}
		c.mod = nil
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// guard runs fn, converting a returned error or a panic into console output.
// It reports whether fn completed successfully.
func (c *Container) guard(ctx context.Context, op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.report(ctx, op, oops.In("container").
				Code(CodeCommandExecutionFailure).
				With("operation", op).
				With("command", c.lastCommand).
				With("panic", true).
				Errorf("%v", r))
			ok = false
		}
	}()

	if err := fn(); err != nil {
		c.report(ctx, op, oops.In("container").
			Code(CodeCommandExecutionFailure).
			With("operation", op).
			With("command", c.lastCommand).
			Wrap(err))
		return false
	}
	return true
}

func (c *Container) report(ctx context.Context, op string, err error) {
	c.console.DisplayError(err.Error())
	errutil.LogError(ctx, c.logger, fmt.Sprintf("command %s failed", op), err)
}

func errNoModule(op string) error {
	return oops.In("container").
		Code(CodeNoModule).
		With("operation", op).
		Errorf("cannot %s: no module loaded", op)
}
