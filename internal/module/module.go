// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package module abstracts a unit of code loaded by path, the types it
// declares, and the capability scan that picks types out of it.
package module

import (
	"context"
	"reflect"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/pkg/command"
)

// Error codes for module loading and discovery.
const (
	CodeLoadFailure   = "LOAD_FAILURE"
	CodeNoCapableType = "NO_CAPABLE_TYPE"
)

// Type is one type declared by a loaded module.
type Type interface {
	// Name identifies the type for diagnostics.
	Name() string
	// Implements reports whether instances satisfy the interface type iface.
	Implements(iface reflect.Type) bool
	// New constructs a fresh instance.
	New() (any, error)
}

// Module is a loaded unit of code.
type Module interface {
	// Path is the file the module was loaded from.
	Path() string
	// Types returns the declared types in declaration order.
	Types() []Type
	// Close releases everything the module holds.
	Close() error
}

// Versioned is implemented by modules that declare the API version they
// were written against.
type Versioned interface {
	APIVersion() string
}

// Loader loads modules from files. The console is handed to module code
// that wants to talk to the host.
type Loader interface {
	Load(ctx context.Context, path string, console command.Console) (Module, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string, console command.Console) (Module, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, path string, console command.Console) (Module, error) {
	return f(ctx, path, console)
}

// Scan returns the first type in m, in declaration order, whose instances
// satisfy iface.
func Scan(m Module, iface reflect.Type) (Type, error) {
	for _, t := range m.Types() {
		if t.Implements(iface) {
			return t, nil
		}
	}
	return nil, oops.In("module").
		Code(CodeNoCapableType).
		With("module", m.Path()).
		With("capability", iface.Name()).
		Errorf("%s declares no %s type", m.Path(), iface.Name())
}

// Instantiate constructs t and asserts the result to T.
func Instantiate[T any](t Type) (T, error) {
	var zero T
	raw, err := t.New()
	if err != nil {
		return zero, oops.In("module").
			With("type", t.Name()).
			Wrapf(err, "construct %s", t.Name())
	}
	v, ok := raw.(T)
	if !ok {
		return zero, oops.In("module").
			Code(CodeNoCapableType).
			With("type", t.Name()).
			Errorf("%s instance is %T, not %s", t.Name(), raw, reflect.TypeFor[T]())
	}
	return v, nil
}
