// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server accepts tickwire clients over TCP.
//
// The server handles one connection at a time. The listen backlog is
// one, so at most one further client can wait in the kernel while the
// current one is served. For each request line the connection handler
// decodes a command, hands it to the bridge queue and blocks until the
// emulation goroutine publishes the result or the await timeout
// elapses. The reply is written before the next buffered line is even
// decoded, so replies always come back in request order.
//
// A timed-out command is not cancelled. It still runs when the
// emulation goroutine drains it, and its result is discarded.
package server
