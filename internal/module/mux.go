// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package module

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/pkg/command"
)

// Mux dispatches to a Loader by file name suffix. The longest matching
// suffix wins, so ".nll.lua" can be routed apart from ".lua".
type Mux struct {
	loaders  map[string]Loader
	fallback Loader
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{loaders: make(map[string]Loader)}
}

// Handle routes files ending in suffix to l.
func (m *Mux) Handle(suffix string, l Loader) *Mux {
	m.loaders[strings.ToLower(suffix)] = l
	return m
}

// Fallback routes files that match no suffix to l.
func (m *Mux) Fallback(l Loader) *Mux {
	m.fallback = l
	return m
}

// Suffixes returns the registered suffixes, longest first.
func (m *Mux) Suffixes() []string {
	out := make([]string, 0, len(m.loaders))
	for s := range m.loaders {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Load selects a loader for path and delegates to it.
func (m *Mux) Load(ctx context.Context, path string, console command.Console) (Module, error) {
	base := strings.ToLower(filepath.Base(path))
	for _, suffix := range m.Suffixes() {
		if strings.HasSuffix(base, suffix) {
			return m.loaders[suffix].Load(ctx, path, console)
		}
	}
	if m.fallback != nil {
		return m.fallback.Load(ctx, path, console)
	}
	return nil, oops.In("module").
		Code(CodeLoadFailure).
		With("path", path).
		With("suffixes", m.Suffixes()).
		Errorf("no loader handles %s", filepath.Base(path))
}
