// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/bureau-foundation/tickwire/lib/clock"
)

// Queue is the FIFO of commands waiting for the emulation goroutine.
// The zero value is ready to use.
type Queue struct {
	mu      sync.Mutex
	pending []*Command
}

// Enqueue appends cmd. Ownership of cmd's parameters passes to the
// queue; the caller keeps only the right to Await.
func (q *Queue) Enqueue(cmd *Command) {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()
}

// DrainAll detaches every pending command and returns them oldest
// first. Returns nil when nothing is pending.
func (q *Queue) DrainAll() []*Command {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	return batch
}

// Len returns the number of commands waiting for the next drain.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Call enqueues cmd and awaits its result.
func (q *Queue) Call(ctx context.Context, clk clock.Clock, timeout time.Duration, cmd *Command) ([]byte, error) {
	q.Enqueue(cmd)
	return cmd.Await(ctx, clk, timeout)
}
