// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

func TestParse_Literals(t *testing.T) {
	script, err := Parse(`relay -doIt bar 1 -2 2.5 1e3 "two words" on No plain`)
	require.NoError(t, err)
	require.Len(t, script.Statements, 1)

	stmt := script.Statements[0]
	assert.Equal(t, "relay", stmt.Name)
	assert.Equal(t, args.List{
		args.String("-doIt"),
		args.String("bar"),
		args.Int(1),
		args.Int(-2),
		args.Float(2.5),
		args.Float(1000),
		args.String("two words"),
		args.Bool(true),
		args.Bool(false),
		args.String("plain"),
	}, stmt.List())
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		names []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "undo", []string{"undo"}},
		{"separated", "relay -ld Foo; relay -doIt bar", []string{"relay", "relay"}},
		{"stray separators", ";; undo ;", []string{"undo"}},
		{"semicolon in string", `echo "a;b"; redo`, []string{"echo", "redo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := Parse(tt.line)
			require.NoError(t, err)
			var names []string
			for _, stmt := range script.Statements {
				names = append(names, stmt.Name)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestParse_EscapedString(t *testing.T) {
	script, err := Parse(`echo "say \"hi\""`)
	require.NoError(t, err)
	assert.Equal(t, args.List{args.String(`say "hi"`)}, script.Statements[0].List())
}

func TestParse_Errors(t *testing.T) {
	for _, line := range []string{
		`echo "unterminated`,
		`42 is not a command`,
		`-flag first`,
	} {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, CodeSyntaxError)
		})
	}
}

func TestStatement_String(t *testing.T) {
	script, err := Parse(`relay -doIt bar 1 2.0 "two words" "true" "7" yes`)
	require.NoError(t, err)
	stmt := script.Statements[0]
	assert.Equal(t, `relay -doIt bar 1 2.0 "two words" "true" "7" true`, stmt.String())

	again, err := Parse(stmt.String())
	require.NoError(t, err)
	assert.Equal(t, stmt.List(), again.Statements[0].List())
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Foo", "Foo"},
		{1.0, "1.0"},
		{2.5, "2.5"},
		{float32(3), "3.0"},
		{1e21, "1e+21"},
		{math.Inf(1), "+Inf"},
		{int64(7), "7"},
		{true, "true"},
		{args.Int(4), "4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatResult(tt.in), "%v", tt.in)
	}
}
