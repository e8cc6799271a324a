// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua

import (
	"strings"
	"unicode"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/cmdrelay/pkg/args"
)

// luaName maps a Go method name to the snake_case field a Lua type
// declares: DoIt -> do_it, InitializePlugin -> initialize_plugin.
func luaName(method string) string {
	var b strings.Builder
	for i, r := range method {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// toLuaList converts an argument list to a Lua sequence.
func toLuaList(L *lua.LState, l args.List) *lua.LTable {
	t := L.CreateTable(len(l), 0)
	for _, v := range l {
		t.Append(toLua(v))
	}
	return t
}

func toLua(v args.Value) lua.LValue {
	switch v.Kind() {
	case args.KindString:
		return lua.LString(v.Str())
	case args.KindInt, args.KindFloat:
		return lua.LNumber(v.Float64())
	case args.KindBool:
		return lua.LBool(v.Truth())
	default:
		return lua.LNil
	}
}

// maxResultDepth bounds how deeply nested a table handed to the host may be.
const maxResultDepth = 32

// fromLua converts a Lua value handed to the host into a Go value.
// Sequences become []any; other tables become map[string]any. A table that
// contains itself, or nests deeper than maxResultDepth, fails.
func fromLua(v lua.LValue) (any, error) {
	return convert(v, map[*lua.LTable]struct{}{}, 0)
}

func convert(v lua.LValue, path map[*lua.LTable]struct{}, depth int) (any, error) {
	switch val := v.(type) {
	case lua.LString:
		return string(val), nil
	case lua.LNumber:
		return float64(val), nil
	case lua.LBool:
		return bool(val), nil
	case *lua.LTable:
		if _, ok := path[val]; ok {
			return nil, oops.In("lua").With("depth", depth).Errorf("table contains itself")
		}
		if depth >= maxResultDepth {
			return nil, oops.In("lua").With("max_depth", maxResultDepth).Errorf("table nested deeper than %d levels", maxResultDepth)
		}
		path[val] = struct{}{}
		defer delete(path, val)
		return convertTable(val, path, depth+1)
	default:
		return nil, nil
	}
}

func convertTable(t *lua.LTable, path map[*lua.LTable]struct{}, depth int) (any, error) {
	if n := t.Len(); n > 0 {
		out := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			item, err := convert(t.RawGetInt(i), path, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	}

	out := map[string]any{}
	var err error
	t.ForEach(func(k, item lua.LValue) {
		if err != nil {
			return
		}
		var converted any
		if converted, err = convert(item, path, depth); err == nil {
			out[k.String()] = converted
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
