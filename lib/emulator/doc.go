// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package emulator defines the boundary between tickwire and an
// emulation core. tickwire never reaches past these interfaces: a core
// is wired in by implementing [Emulator], and everything the command
// handlers need (running frames, peeking and poking memory, pressing
// buttons, reading the program counter) is expressed here.
//
// Every method is called on the emulation goroutine. Implementations
// need not be safe for concurrent use beyond what they document.
package emulator
