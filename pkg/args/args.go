// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package args defines the typed argument list passed to relayed commands
// and the byte codec used to carry it across the isolation boundary.
package args

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// Kind tags the scalar type held by a Value.
type Kind uint8

// Supported argument kinds. The numeric values double as wire field numbers.
const (
	KindString Kind = 1
	KindInt    Kind = 2
	KindFloat  Kind = 3
	KindBool   Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// CodeInvalidArgument is returned by the typed accessors on a kind mismatch
// or an out-of-range index, and by Encode for a zero Value.
const CodeInvalidArgument = "INVALID_ARGUMENT"

// Value is one scalar element of an argument list.
//
// Numbers are stored as raw 64-bit patterns so that equality (including
// reflect.DeepEqual) is exact for every float, NaN and -0 included.
type Value struct {
	kind Kind
	str  string
	bits uint64
}

// String returns a string argument.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer argument.
func Int(i int64) Value { return Value{kind: KindInt, bits: uint64(i)} }

// Float returns a floating-point argument.
func Float(f float64) Value { return Value{kind: KindFloat, bits: math.Float64bits(f)} }

// Bool returns a boolean argument.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.bits = 1
	}
	return v
}

// Kind reports the value's kind. The zero Value has kind 0.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload, or "" for other kinds.
func (v Value) Str() string { return v.str }

// Int64 returns the integer payload, or 0 for other kinds.
func (v Value) Int64() int64 {
	if v.kind != KindInt {
		return 0
	}
	return int64(v.bits)
}

// Float64 returns the float payload. Integers are widened; other kinds yield 0.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindFloat:
		return math.Float64frombits(v.bits)
	case KindInt:
		return float64(int64(v.bits))
	default:
		return 0
	}
}

// Truth returns the bool payload, or false for other kinds.
func (v Value) Truth() bool { return v.kind == KindBool && v.bits != 0 }

// Interface returns the payload as string, int64, float64 or bool.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.Int64()
	case KindFloat:
		return v.Float64()
	case KindBool:
		return v.Truth()
	default:
		return nil
	}
}

// String renders the value the way it would be typed on a command line.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindInt:
		return strconv.FormatInt(v.Int64(), 10)
	case KindFloat:
		s := strconv.FormatFloat(v.Float64(), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case KindBool:
		return strconv.FormatBool(v.Truth())
	default:
		return "<invalid>"
	}
}

// List is an ordered argument list.
type List []Value

// Len returns the number of arguments.
func (l List) Len() int { return len(l) }

// String renders the list space-separated.
func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

func (l List) at(i int, want Kind) (Value, error) {
	if i < 0 || i >= len(l) {
		return Value{}, oops.Code(CodeInvalidArgument).
			With("index", i).
			With("length", len(l)).
			Errorf("argument %d out of range", i)
	}
	v := l[i]
	if v.kind != want {
		return Value{}, oops.Code(CodeInvalidArgument).
			With("index", i).
			With("want", want.String()).
			With("got", v.kind.String()).
			Errorf("argument %d is %s, not %s", i, v.kind, want)
	}
	return v, nil
}

// AsString returns argument i as a string.
func (l List) AsString(i int) (string, error) {
	v, err := l.at(i, KindString)
	return v.str, err
}

// AsInt returns argument i as an integer.
func (l List) AsInt(i int) (int64, error) {
	v, err := l.at(i, KindInt)
	return v.Int64(), err
}

// AsFloat returns argument i as a float. Integer arguments are accepted.
func (l List) AsFloat(i int) (float64, error) {
	if i >= 0 && i < len(l) && l[i].kind == KindInt {
		return l[i].Float64(), nil
	}
	v, err := l.at(i, KindFloat)
	return v.Float64(), err
}

// AsBool returns argument i as a bool.
func (l List) AsBool(i int) (bool, error) {
	v, err := l.at(i, KindBool)
	return v.Truth(), err
}
