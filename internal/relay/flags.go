// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package relay

import (
	"context"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/pkg/args"
)

// CodeInvalidFlags is returned when a relay line names no known flag.
const CodeInvalidFlags = "INVALID_FLAGS"

const usage = "must assign flag '-ld/load' or '-uld/unload' or '-cmd/command_name'"

type action int

const (
	actionNone action = iota
	actionLoad
	actionDo
	actionUnload
	actionInfo
)

// flag is one entry of the relay syntax table. Flags match their short or
// long spelling exactly.
type flag struct {
	short, long string
	action      action
	// operand is set for flags followed by one argument.
	operand bool
}

var syntax = []flag{
	{short: "-ld", long: "-load", action: actionLoad, operand: true},
	{short: "-do", long: "-doIt", action: actionDo, operand: true},
	{short: "-uld", long: "-unload", action: actionUnload},
	{short: "-i", long: "-info", action: actionInfo},
}

func lookup(s string) (flag, bool) {
	for _, f := range syntax {
		if s == f.short || s == f.long {
			return f, true
		}
	}
	return flag{}, false
}

// request is a parsed relay line.
type request struct {
	set     map[action]string
	command string
	rest    args.List
}

func (q request) has(a action) bool {
	_, ok := q.set[a]
	return ok
}

// parse reads a relay argument list. Everything after "-doIt <cmd>"
// belongs to the forwarded command.
func parse(l args.List) (request, error) {
	q := request{set: make(map[action]string)}
	for i := 0; i < len(l); i++ {
		v := l[i]
		if v.Kind() != args.KindString {
			return request{}, invalidFlags(i, v.String())
		}
		f, ok := lookup(v.Str())
		if !ok {
			return request{}, invalidFlags(i, v.Str())
		}
		if !f.operand {
			q.set[f.action] = ""
			continue
		}
		if i+1 >= len(l) {
			return request{}, oops.In("relay").
				Code(CodeInvalidFlags).
				With("flag", f.long).
				Errorf("flag %s/%s requires an argument", f.short, f.long[1:])
		}
		i++
		q.set[f.action] = operand(l[i])
		if f.action == actionDo {
			q.command = operand(l[i])
			q.rest = append(args.List{}, l[i+1:]...)
			break
		}
	}
	return q, nil
}

// operand renders a flag argument as text; the host may have typed it.
func operand(v args.Value) string {
	if v.Kind() == args.KindString {
		return v.Str()
	}
	return v.String()
}

func invalidFlags(index int, got string) error {
	return oops.In("relay").
		Code(CodeInvalidFlags).
		With("index", index).
		With("flag", got).
		Errorf("%s", usage)
}

// DoIt is the host-facing entry point. It parses the relay flags and
// dispatches; when several are given, load wins over doIt, doIt over
// unload, and unload over info.
func (r *Command) DoIt(ctx context.Context, l args.List) error {
	r.diag.Enter((*Command).DoIt)

	q, err := parse(l)
	if err != nil {
		return err
	}

	switch {
	case q.has(actionLoad):
		return r.Load(ctx, q.set[actionLoad])
	case q.has(actionDo):
		return r.Invoke(ctx, q.command, q.rest)
	case q.has(actionUnload):
		return r.Unload(ctx)
	case q.has(actionInfo):
		return r.Info(ctx)
	default:
		return oops.In("relay").Code(CodeInvalidFlags).Errorf("%s", usage)
	}
}
