// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package lua loads relay modules written in Lua.
//
// A module file returns its declared types, either directly as a sequence
// or wrapped with an API version:
//
//	local Bar = { name = "Bar" }
//	function Bar:do_it(args) relay.set_result(1.0) end
//	function Bar:undo_it() end
//	function Bar:is_undoable() return false end
//	return { api_version = "1.0.0", types = { Bar } }
//
// A type satisfies a capability when it has a function for every method of
// the capability, named in snake_case. Each module runs in its own
// sandboxed state that is closed when the module is unloaded.
package lua

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/cmdrelay/internal/module"
	"github.com/holomush/cmdrelay/pkg/command"
)

// DefaultAPIConstraint is the range of module api_version values accepted.
const DefaultAPIConstraint = "^1.0.0"

// Extension is the file extension of Lua modules.
const Extension = ".lua"

// Compile-time interface checks.
var (
	_ module.Loader    = (*Loader)(nil)
	_ module.Versioned = (*luaModule)(nil)
)

// Loader loads Lua modules.
type Loader struct {
	sandbox    Sandbox
	constraint *semver.Constraints
}

// NewLoader creates a Loader accepting DefaultAPIConstraint.
func NewLoader() *Loader {
	c, err := semver.NewConstraint(DefaultAPIConstraint)
	if err != nil {
		panic(fmt.Sprintf("lua: invalid default constraint: %v", err))
	}
	return &Loader{sandbox: DefaultSandbox(), constraint: c}
}

// NewLoaderWithConstraint creates a Loader accepting the given semver range.
func NewLoaderWithConstraint(constraint string) (*Loader, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, oops.In("lua").With("constraint", constraint).Wrapf(err, "parse api constraint")
	}
	return &Loader{sandbox: DefaultSandbox(), constraint: c}, nil
}

// Load runs the module file in a fresh state and collects its types.
func (l *Loader) Load(ctx context.Context, path string, console command.Console) (module.Module, error) {
	errb := oops.In("lua").Code(module.CodeLoadFailure).With("path", path)

	code, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errb.Hint("failed to read module file").Wrap(err)
	}

	L, err := l.sandbox.open(ctx)
	if err != nil {
		return nil, errb.Hint("failed to create state").Wrap(err)
	}

	m := &luaModule{path: path, state: L, console: console}
	m.registerHostFunctions()

	top := L.GetTop()
	err = L.DoString(string(code))
	L.RemoveContext()
	if err != nil {
		L.Close()
		return nil, errb.Hint("module raised an error while loading").Wrap(err)
	}
	if L.GetTop() == top {
		L.Close()
		return nil, errb.Errorf("%s returned no types", filepath.Base(path))
	}
	decl := L.Get(top + 1)
	L.SetTop(top)

	if err := m.declare(decl, l.constraint); err != nil {
		L.Close()
		return nil, errb.Wrap(err)
	}
	return m, nil
}

// luaModule owns one Lua state.
type luaModule struct {
	path       string
	state      *lua.LState
	console    command.Console
	apiVersion *semver.Version
	types      []module.Type
}

func (m *luaModule) Path() string         { return m.path }
func (m *luaModule) Types() []module.Type { return m.types }

// APIVersion returns the declared api_version, or "" if none was given.
func (m *luaModule) APIVersion() string {
	if m.apiVersion == nil {
		return ""
	}
	return m.apiVersion.String()
}

func (m *luaModule) Close() error {
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
	return nil
}

// declare reads the module's return value.
func (m *luaModule) declare(decl lua.LValue, constraint *semver.Constraints) error {
	table, ok := decl.(*lua.LTable)
	if !ok {
		return oops.Errorf("module must return a table, got %s", decl.Type())
	}

	if raw := table.RawGetString("api_version"); raw != lua.LNil {
		v, err := semver.NewVersion(raw.String())
		if err != nil {
			return oops.With("api_version", raw.String()).Wrapf(err, "parse api_version")
		}
		if !constraint.Check(v) {
			return oops.With("api_version", v.String()).
				With("supported", constraint.String()).
				Errorf("module targets api %s, host supports %s", v, constraint)
		}
		m.apiVersion = v
	}

	list := table
	if types, ok := table.RawGetString("types").(*lua.LTable); ok {
		list = types
	}

	for i := 1; i <= list.Len(); i++ {
		t, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			return oops.With("index", i).Errorf("type %d is a %s, not a table", i, list.RawGetInt(i).Type())
		}
		name := fmt.Sprintf("type%d", i)
		if s, ok := t.RawGetString("name").(lua.LString); ok && s != "" {
			name = string(s)
		}
		m.types = append(m.types, &luaType{module: m, table: t, name: name})
	}
	return nil
}

// registerHostFunctions installs the relay.* table module code uses to
// reach the host console.
func (m *luaModule) registerHostFunctions() {
	L := m.state
	mod := L.NewTable()
	L.SetField(mod, "set_result", L.NewFunction(func(L *lua.LState) int {
		result, err := fromLua(L.Get(1))
		if err != nil {
			L.RaiseError("relay.set_result: %s", err.Error())
			return 0
		}
		m.console.SetResult(result)
		return 0
	}))
	L.SetField(mod, "info", L.NewFunction(func(L *lua.LState) int {
		m.console.DisplayInfo(L.CheckString(1))
		return 0
	}))
	L.SetField(mod, "warn", L.NewFunction(func(L *lua.LState) int {
		m.console.DisplayWarning(L.CheckString(1))
		return 0
	}))
	L.SetField(mod, "error", L.NewFunction(func(L *lua.LState) int {
		m.console.DisplayError(L.CheckString(1))
		return 0
	}))
	L.SetGlobal("relay", mod)
}

// luaType is one declared type table.
type luaType struct {
	module *luaModule
	table  *lua.LTable
	name   string
}

func (t *luaType) Name() string { return t.name }

// Implements checks that every method of iface has a Lua function.
func (t *luaType) Implements(iface reflect.Type) bool {
	return hasMethods(t.module.state, t.table, iface)
}

// New calls the type's new() constructor if it has one; otherwise it
// returns an empty table that inherits from the type.
func (t *luaType) New() (any, error) {
	L := t.module.state
	if L == nil {
		return nil, oops.In("lua").With("type", t.name).Errorf("module is closed")
	}

	var inst *lua.LTable
	if ctor, ok := L.GetField(t.table, "new").(*lua.LFunction); ok {
		if err := L.CallByParam(lua.P{Fn: ctor, NRet: 1, Protect: true}, t.table); err != nil {
			return nil, oops.In("lua").With("type", t.name).Wrapf(err, "%s.new", t.name)
		}
		ret := L.Get(-1)
		L.Pop(1)
		tbl, ok := ret.(*lua.LTable)
		if !ok {
			return nil, oops.In("lua").With("type", t.name).Errorf("%s.new returned %s, not a table", t.name, ret.Type())
		}
		inst = tbl
	} else {
		inst = L.NewTable()
		meta := L.NewTable()
		meta.RawSetString("__index", t.table)
		L.SetMetatable(inst, meta)
	}

	obj := &object{module: t.module, self: inst, typeName: t.name}
	if hasMethods(L, inst, command.RedoerType) {
		return &redoObject{object: obj}, nil
	}
	return obj, nil
}

func hasMethods(L *lua.LState, t *lua.LTable, iface reflect.Type) bool {
	if L == nil {
		return false
	}
	for i := range iface.NumMethod() {
		if _, ok := L.GetField(t, luaName(iface.Method(i).Name)).(*lua.LFunction); !ok {
			return false
		}
	}
	return true
}
