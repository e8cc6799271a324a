// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package args_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

func TestList_Accessors(t *testing.T) {
	l := args.List{args.String("name"), args.Int(7), args.Float(1.5), args.Bool(true)}

	s, err := l.AsString(0)
	require.NoError(t, err)
	assert.Equal(t, "name", s)

	i, err := l.AsInt(1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)

	f, err := l.AsFloat(2)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 0)

	widened, err := l.AsFloat(1)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, widened, 0)

	b, err := l.AsBool(3)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestList_AccessorErrors(t *testing.T) {
	l := args.List{args.String("name")}

	_, err := l.AsInt(0)
	errutil.AssertErrorCode(t, err, args.CodeInvalidArgument)
	errutil.AssertErrorContext(t, err, "got", "string")

	_, err = l.AsString(3)
	errutil.AssertErrorCode(t, err, args.CodeInvalidArgument)
	errutil.AssertErrorContext(t, err, "index", 3)
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, `"a b"`, args.String("a b").String())
	assert.Equal(t, "-4", args.Int(-4).String())
	assert.Equal(t, "1.0", args.Float(1).String())
	assert.Equal(t, "0.25", args.Float(0.25).String())
	assert.Equal(t, "false", args.Bool(false).String())
	assert.Equal(t, `"x" 2 true`, args.List{args.String("x"), args.Int(2), args.Bool(true)}.String())
}

func TestValue_Interface(t *testing.T) {
	assert.Equal(t, "x", args.String("x").Interface())
	assert.Equal(t, int64(2), args.Int(2).Interface())
	assert.Equal(t, 2.5, args.Float(2.5).Interface())
	assert.Equal(t, true, args.Bool(true).Interface())
	assert.Nil(t, args.Value{}.Interface())
}
