// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bureau-foundation/tickwire/lib/clock"
)

// Kind identifies what a Command asks the emulator to do.
type Kind int

const (
	LoadProgram Kind = iota
	StepTicks
	ReadMemory
	WriteMemory
	SetInput
	GetStatus
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{LoadProgram, StepTicks, ReadMemory, WriteMemory, SetInput, GetStatus}

// String returns the wire method name for the kind.
func (k Kind) String() string {
	switch k {
	case LoadProgram:
		return "load_rom"
	case StepTicks:
		return "step_frame"
	case ReadMemory:
		return "read_memory"
	case WriteMemory:
		return "write_memory"
	case SetInput:
		return "set_input"
	case GetStatus:
		return "get_state"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrTimeout is returned by Await when the deadline passes before
	// the result is published.
	ErrTimeout = errors.New("timeout")

	// ErrAlreadyPublished is returned by a second Publish. The first
	// result stands.
	ErrAlreadyPublished = errors.New("result already published")

	// ErrAbandoned is returned by Publish when the waiter has already
	// given up. The result is stored but nobody will read it.
	ErrAbandoned = errors.New("result published after waiter gave up")
)

// Command is one decoded request plus its one-shot result slot.
//
// The parameter fields are written by the decoder before Enqueue and
// only read afterwards. Which fields are meaningful depends on Kind:
// Path for LoadProgram, Count for StepTicks, Address and Size for
// ReadMemory, Address and Value for WriteMemory, Port and Buttons for
// SetInput.
type Command struct {
	Kind Kind
	ID   int

	Path    string
	Count   int
	Address int
	Size    int
	Value   int
	Port    int
	Buttons int

	mu        sync.Mutex
	ready     chan struct{}
	result    []byte
	published bool
	abandoned bool
}

// readyLocked returns the ready channel, creating it on first use so a
// Command built as a struct literal works. Must be called with c.mu
// held.
func (c *Command) readyLocked() chan struct{} {
	if c.ready == nil {
		c.ready = make(chan struct{})
	}
	return c.ready
}

// Publish stores result and wakes the waiter. It must be called once;
// later calls return ErrAlreadyPublished and change nothing. If the
// waiter already timed out the result is kept but ErrAbandoned is
// returned so the caller can account for the discard.
func (c *Command) Publish(result []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.published {
		return ErrAlreadyPublished
	}
	c.result = result
	c.published = true
	close(c.readyLocked())

	if c.abandoned {
		return ErrAbandoned
	}
	return nil
}

// Published reports whether Publish has been called.
func (c *Command) Published() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published
}

// Await blocks until the result is published, timeout elapses on clk,
// or ctx is done. A result that is already published is returned
// without arming a deadline. On timeout it returns ErrTimeout; on
// context cancellation it returns ctx.Err(). Either way the command is
// marked abandoned.
func (c *Command) Await(ctx context.Context, clk clock.Clock, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	ready := c.readyLocked()
	if c.published {
		result := c.result
		c.mu.Unlock()
		return result, nil
	}
	c.mu.Unlock()

	deadline := clk.After(timeout)
	select {
	case <-ready:
		return c.load(), nil
	case <-deadline:
		return c.abandon(ErrTimeout)
	case <-ctx.Done():
		return c.abandon(ctx.Err())
	}
}

func (c *Command) load() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// abandon marks the command abandoned unless the result slipped in
// between the select firing and the lock being taken, in which case
// the result wins.
func (c *Command) abandon(reason error) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.published {
		return c.result, nil
	}
	c.abandoned = true
	return nil, reason
}
