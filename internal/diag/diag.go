// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package diag emits method-entry trace lines when diagnostics are enabled.
//
// A trace line names the entry point, its declaring type and its parameter
// types, e.g. "Container.Invoke(Context, string, []uint8)". Filters select
// entry points with gobwas/glob patterns using '.' as the separator:
//   - "Container.*" matches every Container method
//   - "*.Invoke" matches Invoke on any type
//   - "**" matches everything
package diag

import (
	"log/slog"
	"reflect"
	"runtime"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/pkg/command"
)

// Options configures a Tracer.
type Options struct {
	Enabled bool
	Filters []string
	Logger  *slog.Logger
}

// Tracer writes trace lines to the host console. A nil *Tracer is valid
// and traces nothing.
type Tracer struct {
	console command.Console
	logger  *slog.Logger
	filters []glob.Glob
}

// New returns a tracer, or nil if opts.Enabled is false.
func New(console command.Console, opts Options) (*Tracer, error) {
	if !opts.Enabled {
		return nil, nil
	}
	t := &Tracer{console: console, logger: opts.Logger}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	for i, pattern := range opts.Filters {
		if pattern == "" {
			return nil, oops.In("diag").With("index", i).Errorf("filter %d: empty pattern", i)
		}
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, oops.In("diag").With("pattern", pattern).Wrapf(err, "filter %d", i)
		}
		t.filters = append(t.filters, g)
	}
	return t, nil
}

// Enter traces entry into fn, which must be a function or method
// expression such as (*Container).Invoke.
func (t *Tracer) Enter(fn any) {
	if t == nil {
		return
	}
	name, line := Describe(fn)
	if !t.match(name) {
		return
	}
	t.console.DisplayInfo(line)
	t.logger.Debug("trace", "method", name, "signature", line)
}

func (t *Tracer) match(name string) bool {
	if len(t.filters) == 0 {
		return true
	}
	for _, g := range t.filters {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Describe returns "Type.Method" and the full trace line for fn.
func Describe(fn any) (name, line string) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return "?", "?()"
	}

	full := runtime.FuncForPC(v.Pointer()).Name()
	methodValue := strings.HasSuffix(full, "-fm")
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}

	pkg, rest, _ := strings.Cut(full, ".")
	receiver := strings.HasPrefix(rest, "(") || strings.Count(rest, ".") == 1
	if receiver {
		rest = strings.NewReplacer("(*", "", "(", "", ")", "").Replace(rest)
		name = rest
	} else {
		name = pkg + "." + rest
	}

	ft := v.Type()
	start := 0
	if receiver && !methodValue && ft.NumIn() > 0 {
		start = 1
	}
	params := make([]string, 0, ft.NumIn())
	for i := start; i < ft.NumIn(); i++ {
		params = append(params, typeName(ft.In(i)))
	}
	return name, name + "(" + strings.Join(params, ", ") + ")"
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
