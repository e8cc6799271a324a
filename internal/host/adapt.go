// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"context"

	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/command"
)

// Adapt registers a command written against the module contract as a host
// command. RedoIt is a no-op unless the command implements command.Redoer.
func Adapt(console command.Console, newCommand func() command.Command) Factory {
	return func() Command {
		return adapted{console: console, cmd: newCommand()}
	}
}

type adapted struct {
	console command.Console
	cmd     command.Command
}

func (a adapted) DoIt(_ context.Context, l args.List) error { return a.cmd.DoIt(a.console, l) }

func (a adapted) UndoIt(context.Context) error { return a.cmd.UndoIt(a.console) }

func (a adapted) RedoIt(context.Context) error {
	if r, ok := a.cmd.(command.Redoer); ok {
		return r.RedoIt(a.console)
	}
	return nil
}

func (a adapted) IsUndoable() bool { return a.cmd.IsUndoable() }
