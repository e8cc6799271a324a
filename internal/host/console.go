// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"sync"
)

// Console prints command output in the host's script-editor style and
// mirrors every line to slog:
//
//	// Info: loaded
//	// Warning: nothing to undo
//	// Error: Foo is not found in $CMDRELAY_PLUG_IN_PATH
//	// Result: Foo //
//
// Console is safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	logger *slog.Logger

	result    any
	hasResult bool
}

// NewConsole returns a console writing to w. A nil logger uses
// slog.Default().
func NewConsole(w io.Writer, logger *slog.Logger) *Console {
	if w == nil {
		w = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{w: w, logger: logger}
}

// SetResult records the command result. The last call wins.
func (c *Console) SetResult(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = v
	c.hasResult = true
}

// DisplayInfo prints an info line.
func (c *Console) DisplayInfo(msg string) {
	c.display(slog.LevelInfo, "// Info: ", msg)
}

// DisplayWarning prints a warning line.
func (c *Console) DisplayWarning(msg string) {
	c.display(slog.LevelWarn, "// Warning: ", msg)
}

// DisplayError prints an error line.
func (c *Console) DisplayError(msg string) {
	c.display(slog.LevelError, "// Error: ", msg)
}

// TakeResult returns and clears the pending result.
func (c *Console) TakeResult() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.result, c.hasResult
	c.result, c.hasResult = nil, false
	return v, ok
}

// PrintResult prints a result line.
func (c *Console) PrintResult(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	//nolint:errcheck // console output is best effort
	fmt.Fprintf(c.w, "// Result: %s //\n", FormatResult(v))
}

// Echo prints a line verbatim, without mirroring it to slog.
func (c *Console) Echo(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	//nolint:errcheck // console output is best effort
	fmt.Fprintln(c.w, line)
}

func (c *Console) display(level slog.Level, prefix, msg string) {
	c.mu.Lock()
	//nolint:errcheck // console output is best effort
	fmt.Fprintln(c.w, prefix+msg)
	c.mu.Unlock()
	c.logger.Log(context.Background(), level, msg, "source", "console")
}

// FormatResult renders a command result. Floats always carry a decimal
// point, so 1.0 prints as "1.0".
func FormatResult(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case float64:
		return formatFloat(r, 64)
	case float32:
		return formatFloat(float64(r), 32)
	case fmt.Stringer:
		return r.String()
	default:
		return fmt.Sprint(r)
	}
}

func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	for _, ch := range s {
		if ch == '.' || ch == 'e' {
			return s
		}
	}
	return s + ".0"
}
