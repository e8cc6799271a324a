// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build linux || darwin || freebsd

package goso

import (
	"context"
	"path/filepath"
	"plugin"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/internal/module"
	"github.com/holomush/cmdrelay/pkg/command"
)

// Load opens the shared object at path and reads its exported types.
func (l *Loader) Load(_ context.Context, path string, _ command.Console) (module.Module, error) {
	raw, err := plugin.Open(filepath.Clean(path))
	if err != nil {
		return nil, oops.In("goso").
			Code(module.CodeLoadFailure).
			With("path", path).
			Wrapf(err, "open shared object")
	}

	sym, err := raw.Lookup(ExportSymbol)
	if err != nil {
		return nil, oops.In("goso").
			Code(module.CodeLoadFailure).
			With("path", path).
			With("symbol", ExportSymbol).
			Wrapf(err, "lookup %s", ExportSymbol)
	}

	ts, err := types(path, sym)
	if err != nil {
		return nil, err
	}
	return module.NewStatic(path, ts...), nil
}
