// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package host runs the emulation goroutine.
//
// [Loop.Run] ticks at a fixed rate. Each tick drains the command
// bridge, notices an emulator that stopped underneath a loaded
// program, and, unless a client has taken external control, runs one
// free-running frame. Under external control frames only advance
// through step_frame.
package host
