// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build !linux && !darwin && !freebsd

package goso

import (
	"context"
	"runtime"

	"github.com/samber/oops"

	"github.com/holomush/cmdrelay/internal/module"
	"github.com/holomush/cmdrelay/pkg/command"
)

// Load always fails: Go plugins are not supported on this platform.
func (l *Loader) Load(_ context.Context, path string, _ command.Console) (module.Module, error) {
	return nil, oops.In("goso").
		Code(module.CodeLoadFailure).
		With("path", path).
		With("goos", runtime.GOOS).
		Errorf("shared object modules are not supported on %s", runtime.GOOS)
}
