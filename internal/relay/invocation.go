// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package relay

import (
	"context"

	"github.com/holomush/cmdrelay/pkg/args"
)

// Invocation is one executed relay line. The host keeps each invocation
// on its undo stack; all of them share the relay's single boundary.
type Invocation struct {
	relay *Command
}

// NewInvocation returns an invocation bound to r.
func (r *Command) NewInvocation() *Invocation {
	r.diag.Enter((*Command).NewInvocation)
	return &Invocation{relay: r}
}

// DoIt parses and runs a relay line.
func (i *Invocation) DoIt(ctx context.Context, l args.List) error {
	return i.relay.DoIt(ctx, l)
}

// UndoIt forwards to the relay.
func (i *Invocation) UndoIt(ctx context.Context) error {
	return i.relay.UndoIt(ctx)
}

// RedoIt forwards to the relay.
func (i *Invocation) RedoIt(ctx context.Context) error {
	return i.relay.RedoIt(ctx)
}

// IsUndoable reports the relay's declared undoability.
func (i *Invocation) IsUndoable() bool {
	return i.relay.DeclaredUndoable()
}
