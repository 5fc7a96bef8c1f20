// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is a Go client for the tickwire wire protocol.
//
// A [Client] owns one TCP connection and has at most one request in
// flight. Ids are assigned sequentially from 1. Failure replies become
// [*ReplyError]; transport problems are returned as ordinary errors.
//
//	c, err := client.Dial(ctx, "127.0.0.1:12345")
//	...
//	loaded, err := c.LoadROM(ctx, "/srv/roms/demo.nes")
//	step, err := c.StepFrame(ctx, 60)
//	value, err := c.ReadByteAt(ctx, 0x0010)
package client
