// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

// Discard is a Console that drops everything.
var Discard Console = discard{}

type discard struct{}

func (discard) SetResult(any)         {}
func (discard) DisplayInfo(string)    {}
func (discard) DisplayWarning(string) {}
func (discard) DisplayError(string)   {}
