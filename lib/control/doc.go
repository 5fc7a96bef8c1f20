// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package control executes bridged commands against the emulator.
//
// An [Executor] lives on the emulation goroutine. Once per tick the host
// loop calls [Executor.Drain], which detaches everything queued on the
// bridge, runs each command's handler in order and publishes the reply
// line into the command's result slot. Handlers check the control
// [State] before touching the emulator and never block.
//
// The control state has two shapes:
//
//	unloaded                       rom_loaded=false, console_type=-1, free_running
//	loaded, externally controlled  rom_loaded=true,  console_type=N,  external_controlled
//
// A successful load_rom moves to the second; a failed load_rom or an
// observed emulator stop ([Executor.HandleStopped]) moves back to the
// first. Nothing else changes it, so the network side only ever sees
// the state through get_state.
package control
