// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package machine is a headless, deterministic implementation of the
// emulator interfaces. It does not execute instructions: a frame
// advances the frame counter, moves the program counter through the
// mapped image by a fixed stride, and latches each controller port's
// raw state into the console's input registers. That is enough for a
// client to drive tickwire end to end and observe every command's
// effect in memory.
//
// Each console type gets a [Profile] describing its address bus
// width, where the image is mapped and where input is latched.
package machine
