// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the two time sources tickwire depends on: the
// emulation tick ticker that paces the host loop, and the await
// deadline that bounds how long a connection waits for a command
// result.
//
// Production code receives Real(). Tests receive Fake(), which never
// moves on its own:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go server.Serve(ctx)        // a connection starts awaiting a result
//	c.WaitForTimers(1)          // the await deadline is registered
//	c.Advance(30 * time.Second) // the deadline fires deterministically
//
// WaitForTimers closes the race between a goroutine registering a
// deadline and the test advancing past it.
package clock
