// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"github.com/bureau-foundation/tickwire/lib/emulator"
	"github.com/bureau-foundation/tickwire/lib/protocol"
)

// State is the executor's view of the emulator. Owned by the emulation
// goroutine.
type State struct {
	ROMLoaded       bool
	ConsoleType     emulator.ConsoleType
	ExternalControl bool
}

// Unloaded is the initial state and the state after a failed load or a
// stop.
func Unloaded() State {
	return State{ConsoleType: emulator.ConsoleNone}
}

// Mode returns the wire name of the control mode.
func (s State) Mode() string {
	if s.ExternalControl {
		return protocol.ModeExternalControlled
	}
	return protocol.ModeFreeRunning
}
