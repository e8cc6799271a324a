// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package goso loads relay modules built with -buildmode=plugin.
//
// A shared object declares its types through an exported variable:
//
//	var Types = []reflect.Type{
//		reflect.TypeFor[TestPlugin](),
//		reflect.TypeFor[TestCommand](),
//	}
//
// The Go runtime cannot unload a shared object. Closing the module drops
// every instance the relay holds, but the code stays mapped until the host
// exits; reloading the same path returns the already-mapped object.
package goso

import (
	"reflect"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/internal/module"
)

// ExportSymbol is the variable a shared object exports its types through.
const ExportSymbol = "Types"

// Extension is the file extension of Go shared objects.
const Extension = ".so"

// Compile-time interface check.
var _ module.Loader = (*Loader)(nil)

// Loader loads Go shared objects.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// types converts the exported symbol to module types.
func types(path string, sym any) ([]module.Type, error) {
	switch v := sym.(type) {
	case *[]reflect.Type:
		return module.GoTypes(*v), nil
	case []reflect.Type:
		return module.GoTypes(v), nil
	default:
		return nil, oops.In("goso").
			Code(module.CodeLoadFailure).
			With("path", path).
			With("symbol", ExportSymbol).
			Errorf("symbol %s in %s is %T, not []reflect.Type", ExportSymbol, path, sym)
	}
}
