// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_Lines(t *testing.T) {
	var out, logs bytes.Buffer
	c := NewConsole(&out, slog.New(slog.NewTextHandler(&logs, nil)))

	c.DisplayInfo("loaded")
	c.DisplayWarning("careful")
	c.DisplayError("broken")
	c.PrintResult(1.0)
	c.Echo("relay -ld Foo")

	assert.Equal(t, "// Info: loaded\n"+
		"// Warning: careful\n"+
		"// Error: broken\n"+
		"// Result: 1.0 //\n"+
		"relay -ld Foo\n", out.String())

	assert.Contains(t, logs.String(), "level=INFO msg=loaded source=console")
	assert.Contains(t, logs.String(), "level=WARN msg=careful")
	assert.Contains(t, logs.String(), "level=ERROR msg=broken")
	assert.NotContains(t, logs.String(), "relay -ld Foo")
}

func TestConsole_TakeResult(t *testing.T) {
	c := NewConsole(nil, nil)

	_, ok := c.TakeResult()
	assert.False(t, ok)

	c.SetResult("first")
	c.SetResult("")
	v, ok := c.TakeResult()
	assert.True(t, ok)
	assert.Equal(t, "", v, "last result wins, even when empty")

	_, ok = c.TakeResult()
	assert.False(t, ok, "taking clears the result")
}
