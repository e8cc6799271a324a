// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package module

import (
	"reflect"

	"github.com/samber/oops"
)

// GoType wraps a compiled Go type. Instances are built with reflection:
// for a struct type T, New returns *T if *T implements the requested
// capability, since Go methods are usually declared on the pointer.
type GoType struct {
	t reflect.Type
}

// NewGoType wraps t. Pointer types are accepted and unwrapped.
func NewGoType(t reflect.Type) GoType {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return GoType{t: t}
}

// TypeOf wraps the dynamic type of v.
func TypeOf(v any) GoType { return NewGoType(reflect.TypeOf(v)) }

// Name returns the Go type name.
func (g GoType) Name() string { return g.t.Name() }

// Implements reports whether T or *T implements iface.
func (g GoType) Implements(iface reflect.Type) bool {
	return g.t.Implements(iface) || reflect.PointerTo(g.t).Implements(iface)
}

// New returns a pointer to a zeroed T.
func (g GoType) New() (any, error) {
	if g.t.Kind() == reflect.Interface {
		return nil, oops.In("module").With("type", g.t.String()).Errorf("cannot construct interface type %s", g.t)
	}
	return reflect.New(g.t).Interface(), nil
}

// GoTypes wraps each reflect.Type.
func GoTypes(ts []reflect.Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = NewGoType(t)
	}
	return out
}

// Static is a module whose types are compiled into the host binary.
type Static struct {
	path  string
	types []Type
}

// NewStatic returns a Static module.
func NewStatic(path string, types ...Type) *Static {
	return &Static{path: path, types: types}
}

// Path returns the module path.
func (s *Static) Path() string { return s.path }

// Types returns the declared types.
func (s *Static) Types() []Type { return s.types }

// Close is a no-op.
func (s *Static) Close() error { return nil }
