// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package host is a minimal command host: a registry of named commands, a
// line grammar with typed literals, a console, and an undo/redo stack.
//
// Every executed line constructs a fresh command instance. The host asks
// the instance whether it is undoable immediately after construction and,
// if it is and DoIt succeeds, keeps it on the undo stack.
package host

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

// Error codes reported by the engine.
const (
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodeDuplicateCommand = "DUPLICATE_COMMAND"
)

// Built-in command names.
const (
	CmdUndo    = "undo"
	CmdRedo    = "redo"
	CmdHistory = "history"
)

// DefaultUndoLimit bounds the undo stack when Options.UndoLimit is zero.
const DefaultUndoLimit = 100

// Command is a host command instance.
type Command interface {
	DoIt(ctx context.Context, l args.List) error
	UndoIt(ctx context.Context) error
	RedoIt(ctx context.Context) error
	IsUndoable() bool
}

// Factory constructs a command instance for one executed line.
type Factory func() Command

// Options configures an Engine.
type Options struct {
	Console *Console
	// UndoLimit is the maximum undo depth; older entries are dropped.
	UndoLimit int
	Logger    *slog.Logger
}

type entry struct {
	line string
	cmd  Command
}

// Engine executes command lines.
//
// Engine is safe for concurrent use; lines execute one at a time.
type Engine struct {
	console   *Console
	logger    *slog.Logger
	undoLimit int

	mu       sync.Mutex
	commands map[string]Factory
	undo     []entry
	redo     []entry
	history  []string
}

// New creates an engine with no registered commands.
func New(opts Options) *Engine {
	e := &Engine{
		console:   opts.Console,
		logger:    opts.Logger,
		undoLimit: opts.UndoLimit,
		commands:  make(map[string]Factory),
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.console == nil {
		e.console = NewConsole(nil, e.logger)
	}
	if e.undoLimit <= 0 {
		e.undoLimit = DefaultUndoLimit
	}
	return e
}

// Console returns the engine's console.
func (e *Engine) Console() *Console { return e.console }

// Register adds a named command. Names are unique and cannot shadow a
// built-in.
func (e *Engine) Register(name string, factory Factory) error {
	if name == "" || factory == nil {
		return oops.In("host").With("command", name).Errorf("command name and factory are required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.commands[name]; ok || isBuiltin(name) {
		return oops.In("host").
			Code(CodeDuplicateCommand).
			With("command", name).
			Errorf("command %s is already registered", name)
	}
	e.commands[name] = factory
	return nil
}

// Commands returns the registered command names, sorted.
func (e *Engine) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// History returns every successfully executed line, oldest first.
func (e *Engine) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

// UndoDepth returns the number of entries that can be undone.
func (e *Engine) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undo)
}

// Execute parses and runs a line. Statements run in order; the first
// failure is displayed on the console and returned, and later statements
// are skipped.
func (e *Engine) Execute(ctx context.Context, line string) error {
	script, err := Parse(line)
	if err != nil {
		e.fail(ctx, err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, stmt := range script.Statements {
		if err := e.run(ctx, stmt); err != nil {
			e.fail(ctx, err)
			return err
		}
	}
	return nil
}

func (e *Engine) run(ctx context.Context, stmt *Statement) error {
	switch stmt.Name {
	case CmdUndo:
		return e.undoLast(ctx)
	case CmdRedo:
		return e.redoLast(ctx)
	case CmdHistory:
		for i, line := range e.history {
			e.console.DisplayInfo(strconv.Itoa(i+1) + ": " + line)
		}
		return nil
	}

	factory, ok := e.commands[stmt.Name]
	if !ok {
		return oops.In("host").
			Code(CodeUnknownCommand).
			With("command", stmt.Name).
			Errorf("cannot find procedure %q", stmt.Name)
	}

	cmd := factory()
	undoable := cmd.IsUndoable()
	text := stmt.String()

	e.console.TakeResult()
	if err := cmd.DoIt(ctx, stmt.List()); err != nil {
		return err
	}
	e.printResult()

	e.history = append(e.history, text)
	if undoable {
		e.push(entry{line: text, cmd: cmd})
		e.redo = nil
	}
	e.logger.DebugContext(ctx, "command executed", "line", text, "undoable", undoable)
	return nil
}

func (e *Engine) undoLast(ctx context.Context) error {
	if len(e.undo) == 0 {
		e.console.DisplayWarning("There are no more commands to undo.")
		return nil
	}
	last := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]

	e.console.TakeResult()
	if err := last.cmd.UndoIt(ctx); err != nil {
		return err
	}
	e.console.DisplayInfo("Undo: " + last.line)
	e.printResult()
	e.redo = append(e.redo, last)
	return nil
}

func (e *Engine) redoLast(ctx context.Context) error {
	if len(e.redo) == 0 {
		e.console.DisplayWarning("There are no more commands to redo.")
		return nil
	}
	last := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]

	e.console.TakeResult()
	if err := last.cmd.RedoIt(ctx); err != nil {
		return err
	}
	e.console.DisplayInfo("Redo: " + last.line)
	e.printResult()
	e.push(last)
	return nil
}

func (e *Engine) push(en entry) {
	e.undo = append(e.undo, en)
	if len(e.undo) > e.undoLimit {
		e.undo = slices.Delete(e.undo, 0, len(e.undo)-e.undoLimit)
	}
}

func (e *Engine) printResult() {
	if v, ok := e.console.TakeResult(); ok {
		e.console.PrintResult(v)
	}
}

// fail reports err on the console; the console mirrors the message to slog
// and the oops context goes to the debug log.
func (e *Engine) fail(ctx context.Context, err error) {
	e.console.DisplayError(err.Error())
	e.logger.DebugContext(ctx, "command failed", errutil.Attrs(err)...)
}

func isBuiltin(name string) bool {
	return name == CmdUndo || name == CmdRedo || name == CmdHistory
}
