// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package command defines the capability contract a relayed module
// implements, and the console through which it talks back to the host.
//
// A module declares its types; the relay discovers which of them satisfy
// ExtensionPlugin and Command by inspecting their method sets at load time.
// Module authors never register anything by name.
package command

import (
	"reflect"

	"github.com/holomush/cmdrelay/pkg/args"
)

// Console is the host's diagnostic and result channel.
type Console interface {
	// SetResult publishes the value returned to the host for the current invocation.
	SetResult(v any)
	// DisplayInfo writes an informational line.
	DisplayInfo(msg string)
	// DisplayWarning writes a warning line.
	DisplayWarning(msg string)
	// DisplayError writes an error line.
	DisplayError(msg string)
}

// ExtensionPlugin is the module-level lifecycle hook. At most one instance
// exists per loaded module.
type ExtensionPlugin interface {
	InitializePlugin(c Console) error
	UninitializePlugin(c Console) error
}

// Command is one unit of undoable work.
type Command interface {
	DoIt(c Console, l args.List) error
	UndoIt(c Console) error
	IsUndoable() bool
}

// Redoer is a Command that also supports redo.
type Redoer interface {
	Command
	RedoIt(c Console) error
}

// Interface types used by the capability scan.
var (
	ExtensionPluginType = reflect.TypeFor[ExtensionPlugin]()
	CommandType         = reflect.TypeFor[Command]()
	RedoerType          = reflect.TypeFor[Redoer]()
)
