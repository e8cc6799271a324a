// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package module

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/pkg/command"
)

// Catalog is a Loader for modules compiled into the host. Each entry is
// keyed by the module's file name; the file must still exist on disk so
// that search-path resolution behaves as it does for real modules.
//
// Catalog is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string][]Type
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: make(map[string][]Type)}
}

// Register declares the types of the module stored as file. Registering
// the same file again replaces its types.
func (c *Catalog) Register(file string, types ...Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[file] = types
}

// Load returns the registered module for path's base name.
func (c *Catalog) Load(_ context.Context, path string, _ command.Console) (Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, oops.In("module").
			Code(CodeLoadFailure).
			With("path", path).
			Wrapf(err, "stat module")
	}
	if !info.Mode().IsRegular() {
		return nil, oops.In("module").
			Code(CodeLoadFailure).
			With("path", path).
			Errorf("%s is not a regular file", path)
	}

	c.mu.RLock()
	types, ok := c.modules[filepath.Base(path)]
	c.mu.RUnlock()
	if !ok {
		return nil, oops.In("module").
			Code(CodeLoadFailure).
			With("path", path).
			Errorf("no compiled-in module registered for %s", filepath.Base(path))
	}
	return NewStatic(path, types...), nil
}
