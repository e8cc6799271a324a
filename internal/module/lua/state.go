// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua

import (
	"context"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// Sandbox describes the Lua state a module runs in.
type Sandbox struct {
	// Libraries opened in every state, by name.
	Libraries map[string]lua.LGFunction
	// Removed lists base functions cleared after the libraries are open.
	Removed []string
	// CallStackSize bounds recursion in module code. Zero keeps the
	// gopher-lua default.
	CallStackSize int
}

// DefaultSandbox opens base, table, string and math. Module code gets no
// os, io, debug or package access and cannot load further chunks.
func DefaultSandbox() Sandbox {
	return Sandbox{
		Libraries: map[string]lua.LGFunction{
			lua.BaseLibName:   lua.OpenBase,
			lua.TabLibName:    lua.OpenTable,
			lua.StringLibName: lua.OpenString,
			lua.MathLibName:   lua.OpenMath,
		},
		Removed:       []string{"dofile", "loadfile", "loadstring", "load", "require"},
		CallStackSize: 256,
	}
}

// open creates a state for one module. ctx bounds the module's top-level
// chunk; the loader detaches it once the chunk has run.
func (s Sandbox) open(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: s.CallStackSize,
	})

	// Base first so the other libraries can register into _G.
	if fn, ok := s.Libraries[lua.BaseLibName]; ok {
		if err := openLibrary(L, lua.BaseLibName, fn); err != nil {
			L.Close()
			return nil, err
		}
	}
	for name, fn := range s.Libraries {
		if name == lua.BaseLibName {
			continue
		}
		if err := openLibrary(L, name, fn); err != nil {
			L.Close()
			return nil, err
		}
	}
	for _, name := range s.Removed {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetContext(ctx)
	return L, nil
}

func openLibrary(L *lua.LState, name string, fn lua.LGFunction) error {
	err := L.CallByParam(lua.P{Fn: L.NewFunction(fn), Protect: true}, lua.LString(name))
	if err != nil {
		return oops.In("lua").With("library", name).Wrapf(err, "open library %s", name)
	}
	return nil
}
