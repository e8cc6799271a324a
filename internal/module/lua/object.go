// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua

import (
	"errors"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/command"
)

// Compile-time interface checks.
var (
	_ command.ExtensionPlugin = (*object)(nil)
	_ command.Command         = (*object)(nil)
	_ command.Redoer          = (*redoObject)(nil)
)

// object adapts a Lua instance table to the Go capability interfaces.
// Which interfaces the instance really satisfies was decided by the scan.
type object struct {
	module   *luaModule
	self     *lua.LTable
	typeName string
}

// redoObject is an object whose instance defines redo_it.
type redoObject struct {
	*object
}

func (o *object) InitializePlugin(c command.Console) error {
	return o.expectNotFalse(c, "initialize_plugin")
}

func (o *object) UninitializePlugin(c command.Console) error {
	return o.expectNotFalse(c, "uninitialize_plugin")
}

func (o *object) DoIt(c command.Console, l args.List) error {
	if o.module.state == nil {
		return o.closed("do_it")
	}
	_, err := o.call(c, "do_it", 0, toLuaList(o.module.state, l))
	return err
}

func (o *object) UndoIt(c command.Console) error {
	_, err := o.call(c, "undo_it", 0)
	return err
}

func (o *object) IsUndoable() bool {
	ret, err := o.call(o.module.console, "is_undoable", 1)
	if err != nil {
		return false
	}
	return lua.LVAsBool(ret)
}

func (r *redoObject) RedoIt(c command.Console) error {
	_, err := r.call(c, "redo_it", 0)
	return err
}

// expectNotFalse calls method and treats an explicit false return as failure.
func (o *object) expectNotFalse(c command.Console, method string) error {
	ret, err := o.call(c, method, 1)
	if err != nil {
		return err
	}
	if ret == lua.LFalse {
		return oops.In("lua").
			With("type", o.typeName).
			With("method", method).
			Errorf("%s.%s returned false", o.typeName, method)
	}
	return nil
}

// call invokes self:method(extra...) with c as the active console.
func (o *object) call(c command.Console, method string, nret int, extra ...lua.LValue) (lua.LValue, error) {
	L := o.module.state
	if L == nil {
		return lua.LNil, o.closed(method)
	}
	fn, ok := L.GetField(o.self, method).(*lua.LFunction)
	if !ok {
		return lua.LNil, oops.In("lua").
			With("type", o.typeName).
			With("method", method).
			Errorf("%s has no method %s", o.typeName, method)
	}

	if c != nil {
		prev := o.module.console
		o.module.console = c
		defer func() { o.module.console = prev }()
	}

	params := append([]lua.LValue{o.self}, extra...)
	if err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, params...); err != nil {
		return lua.LNil, oops.In("lua").
			With("type", o.typeName).
			With("method", method).
			Errorf("%s", luaMessage(err))
	}
	if nret == 0 {
		return lua.LNil, nil
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

func (o *object) closed(method string) error {
	return oops.In("lua").
		With("type", o.typeName).
		With("method", method).
		Errorf("module is closed")
}

// luaMessage strips the traceback from a Lua runtime error.
func luaMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
