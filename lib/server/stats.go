// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import "sync/atomic"

// Stats counts connection-side activity. Safe for concurrent use.
type Stats struct {
	connections  atomic.Uint64
	active       atomic.Int64
	frames       atomic.Uint64
	decodeErrors atomic.Uint64
	timeouts     atomic.Uint64
	replies      atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Connections  uint64 `cbor:"connections"`
	Active       int64  `cbor:"active"`
	Frames       uint64 `cbor:"frames"`
	DecodeErrors uint64 `cbor:"decode_errors"`
	Timeouts     uint64 `cbor:"timeouts"`
	Replies      uint64 `cbor:"replies"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Connections:  s.connections.Load(),
		Active:       s.active.Load(),
		Frames:       s.frames.Load(),
		DecodeErrors: s.decodeErrors.Load(),
		Timeouts:     s.timeouts.Load(),
		Replies:      s.replies.Load(),
	}
}
