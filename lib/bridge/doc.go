// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge hands typed commands from the network goroutine to the
// emulation goroutine and carries each command's result back.
//
// A [Command] is owned by exactly two parties for its whole life. The
// connection handler that decoded it enqueues it and then blocks in
// [Command.Await]. The emulation goroutine receives it from
// [Queue.DrainAll], executes it, and calls [Command.Publish] exactly
// once. Nothing else may hold a reference.
//
// The [Queue] is a mutex-protected FIFO. DrainAll detaches the whole
// pending batch under the lock and returns it, so command execution
// (which touches the emulator and may take a while) never holds the
// lock. Commands enqueued while a batch runs wait for the next drain.
//
// Publication is a channel close, so everything the executor wrote
// before Publish is visible to the waiter after Await returns. Await is
// bounded by a deadline taken from an injected clock.Clock. When the
// deadline passes first, Await returns [ErrTimeout] and marks the
// command abandoned; the executor may still publish later, and that
// late result is simply dropped ([ErrAbandoned]). There is no way to
// cancel a command once it is queued.
package bridge
