// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package commandtest provides a recording Console for tests.
package commandtest

import (
	"strings"
	"sync"

	"github.com/holomush/cmdrelay/pkg/command"
)

// Compile-time interface check.
var _ command.Console = (*Console)(nil)

// Console records everything written to it.
type Console struct {
	mu       sync.Mutex
	result   any
	results  int
	infos    []string
	warnings []string
	errors   []string
}

// NewConsole returns an empty recording console.
func NewConsole() *Console {
	return &Console{}
}

func (c *Console) SetResult(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = v
	c.results++
}

func (c *Console) DisplayInfo(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos = append(c.infos, msg)
}

func (c *Console) DisplayWarning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, msg)
}

func (c *Console) DisplayError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

// Result returns the last value passed to SetResult.
func (c *Console) Result() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// ResultCount returns how many times SetResult was called.
func (c *Console) ResultCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

// Infos returns a copy of the informational lines.
func (c *Console) Infos() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.infos...)
}

// Warnings returns a copy of the warning lines.
func (c *Console) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}

// Errors returns a copy of the error lines.
func (c *Console) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.errors...)
}

// HasInfo reports whether any info line contains substr.
func (c *Console) HasInfo(substr string) bool { return contains(c.Infos(), substr) }

// HasError reports whether any error line contains substr.
func (c *Console) HasError(substr string) bool { return contains(c.Errors(), substr) }

// Reset forgets everything recorded so far.
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result, c.results = nil, 0
	c.infos, c.warnings, c.errors = nil, nil, nil
}

func contains(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
