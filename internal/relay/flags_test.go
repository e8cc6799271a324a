// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

func TestParse(t *testing.T) {
	s := args.String

	tests := []struct {
		name    string
		in      args.List
		actions []action
		command string
		rest    args.List
	}{
		{"short load", args.List{s("-ld"), s("Foo")}, []action{actionLoad}, "", nil},
		{"long load", args.List{s("-load"), s("Foo")}, []action{actionLoad}, "", nil},
		{"unload", args.List{s("-uld")}, []action{actionUnload}, "", nil},
		{"long unload", args.List{s("-unload")}, []action{actionUnload}, "", nil},
		{"info", args.List{s("-info")}, []action{actionInfo}, "", nil},
		{
			"doIt keeps trailing arguments",
			args.List{s("-do"), s("bar"), args.Int(1), s("-uld")},
			[]action{actionDo}, "bar", args.List{args.Int(1), s("-uld")},
		},
		{
			"doIt without arguments",
			args.List{s("-doIt"), s("bar")},
			[]action{actionDo}, "bar", args.List{},
		},
		{
			"several flags",
			args.List{s("-uld"), s("-ld"), s("Foo")},
			[]action{actionUnload, actionLoad}, "", nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := parse(tt.in)
			require.NoError(t, err)
			for _, a := range tt.actions {
				assert.True(t, q.has(a), "action %d", a)
			}
			assert.Len(t, q.set, len(tt.actions))
			assert.Equal(t, tt.command, q.command)
			assert.Equal(t, tt.rest, q.rest)
		})
	}
}

func TestParse_LoadOperand(t *testing.T) {
	q, err := parse(args.List{args.String("-ld"), args.String("Foo.nll")})
	require.NoError(t, err)
	assert.Equal(t, "Foo.nll", q.set[actionLoad])

	q, err = parse(args.List{args.String("-ld"), args.Int(42)})
	require.NoError(t, err)
	assert.Equal(t, "42", q.set[actionLoad])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   args.List
		msg  string
	}{
		{"unknown flag", args.List{args.String("-x")}, usage},
		{"flags are case sensitive", args.List{args.String("-LD"), args.String("Foo")}, usage},
		{"bare word", args.List{args.String("Foo")}, usage},
		{"non-string flag", args.List{args.Bool(true)}, usage},
		{"missing load operand", args.List{args.String("-ld")}, "flag -ld/load requires an argument"},
		{"missing command", args.List{args.String("-doIt")}, "flag -do/doIt requires an argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.in)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, CodeInvalidFlags)
			assert.EqualError(t, err, tt.msg)
		})
	}
}
