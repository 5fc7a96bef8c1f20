// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"sync/atomic"

	"github.com/bureau-foundation/tickwire/lib/bridge"
)

// Stats counts executor activity. Written on the emulation goroutine,
// read from anywhere.
type Stats struct {
	drains      atomic.Uint64
	executed    [6]atomic.Uint64
	failed      atomic.Uint64
	lateResults atomic.Uint64
	stops       atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	// Drains counts drains that found at least one command.
	Drains uint64 `cbor:"drains"`

	// Executed counts executed commands by method name.
	Executed map[string]uint64 `cbor:"executed"`

	// Failed counts commands whose reply was ok:false.
	Failed uint64 `cbor:"failed"`

	// LateResults counts results published after the waiter had
	// already replied "timeout". Those results were discarded.
	LateResults uint64 `cbor:"late_results"`

	// Stops counts emulator stops observed while a program was loaded.
	Stops uint64 `cbor:"stops"`
}

func (s *Stats) countExecuted(kind bridge.Kind) {
	if int(kind) >= 0 && int(kind) < len(s.executed) {
		s.executed[kind].Add(1)
	}
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	snapshot := StatsSnapshot{
		Drains:      s.drains.Load(),
		Executed:    make(map[string]uint64, len(bridge.Kinds)),
		Failed:      s.failed.Load(),
		LateResults: s.lateResults.Load(),
		Stops:       s.stops.Load(),
	}
	for _, kind := range bridge.Kinds {
		snapshot.Executed[kind.String()] = s.executed[kind].Load()
	}
	return snapshot
}
