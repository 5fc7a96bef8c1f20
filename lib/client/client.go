// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/tickwire/lib/protocol"
)

// ErrBroken is returned by every call on a client after an exchange
// failed partway. The server may still deliver that exchange's reply,
// so the connection cannot be reused; dial a new client.
var ErrBroken = errors.New("connection unusable after a failed call")

// ReplyError is an ok:false reply.
type ReplyError struct {
	Method  string
	ID      int
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s (id %d): %s", e.Method, e.ID, e.Message)
}

// IsTimeout reports whether the server gave up waiting for the
// emulation goroutine.
func (e *ReplyError) IsTimeout() bool {
	return e.Message == protocol.MessageTimeout
}

// Client is a connection to a tickwire server. Safe for concurrent
// use; calls are serialized.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID int

	// broken is the failure that made the connection unusable.
	broken error
}

// Dial connects to address.
func Dial(ctx context.Context, address string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{conn: conn, reader: bufio.NewReader(conn), nextID: 1}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Broken reports whether an earlier failure made the client unusable.
// A broken client fails every call with ErrBroken.
func (c *Client) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken != nil
}

// Call sends method with params and returns the decoded reply. An
// ok:false reply is returned together with a *ReplyError.
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++

	line, err := protocol.EncodeRequest(method, id, params)
	if err != nil {
		return protocol.Reply{}, fmt.Errorf("encoding %s: %w", method, err)
	}
	raw, err := c.roundTrip(ctx, line)
	if err != nil {
		return protocol.Reply{}, fmt.Errorf("%s: %w", method, err)
	}
	reply, err := protocol.ParseReply(raw)
	if err != nil {
		return protocol.Reply{}, fmt.Errorf("%s: %w", method, err)
	}
	// Timeout and invalid-command replies carry id 0.
	if reply.ID != id && reply.ID != 0 {
		return protocol.Reply{}, fmt.Errorf("%s: %w", method,
			c.breakConnection(fmt.Errorf("reply id %d does not match request id %d", reply.ID, id)))
	}
	if !reply.OK {
		return reply, &ReplyError{Method: method, ID: reply.ID, Message: reply.Error}
	}
	return reply, nil
}

// CallRaw sends one request line exactly as given (a newline is
// appended if missing) and returns the reply line without its newline.
func (c *Client) CallRaw(ctx context.Context, line []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line[:len(line):len(line)], '\n')
	}
	raw, err := c.roundTrip(ctx, line)
	if err != nil {
		return nil, err
	}
	return raw[:len(raw)-1], nil
}

// roundTrip writes line and reads one reply line. Any I/O failure
// breaks the connection. Must hold c.mu.
func (c *Client) roundTrip(ctx context.Context, line []byte) ([]byte, error) {
	if c.broken != nil {
		return nil, fmt.Errorf("%w: %w", ErrBroken, c.broken)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("setting deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := c.conn.Write(line); err != nil {
		return nil, c.breakConnection(c.contextError(ctx, fmt.Errorf("writing request: %w", err)))
	}
	raw, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, c.breakConnection(c.contextError(ctx, fmt.Errorf("reading reply: %w", err)))
	}
	return raw, nil
}

// breakConnection records err as the reason the client is unusable and
// closes the connection. Returns err. Must hold c.mu.
func (c *Client) breakConnection(err error) error {
	c.broken = err
	c.conn.Close()
	return err
}

// contextError prefers the context's error when the context is why
// the I/O failed. The connection deadline mirrors the context's, so it
// can expire a moment before ctx.Err reports it.
func (c *Client) contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline && errors.Is(err, os.ErrDeadlineExceeded) {
		return errors.Join(context.DeadlineExceeded, err)
	}
	return err
}

func decodeResult[T any](reply protocol.Reply, err error) (T, error) {
	var result T
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(reply.Result, &result); err != nil {
		return result, fmt.Errorf("decoding result: %w", err)
	}
	return result, nil
}

// LoadROM loads path and takes external control.
func (c *Client) LoadROM(ctx context.Context, path string) (protocol.LoadResult, error) {
	return decodeResult[protocol.LoadResult](c.Call(ctx, "load_rom", map[string]any{"path": path}))
}

// StepFrame runs count frames (the server clamps to 1-3600).
func (c *Client) StepFrame(ctx context.Context, count int) (protocol.StepResult, error) {
	return decodeResult[protocol.StepResult](c.Call(ctx, "step_frame", map[string]any{"count": count}))
}

// ReadByteAt reads one byte.
func (c *Client) ReadByteAt(ctx context.Context, address int) (uint8, error) {
	result, err := decodeResult[protocol.ValueResult](c.Call(ctx, "read_memory", map[string]any{"address": address}))
	return result.Value, err
}

// ReadMemory reads size bytes (the server clamps to 1-256). A size of
// one is returned as a one-byte slice.
func (c *Client) ReadMemory(ctx context.Context, address, size int) ([]byte, error) {
	if size == 1 {
		value, err := c.ReadByteAt(ctx, address)
		if err != nil {
			return nil, err
		}
		return []byte{value}, nil
	}
	reply, err := c.Call(ctx, "read_memory", map[string]any{"address": address, "size": size})
	if err != nil {
		return nil, err
	}

	// The server answers a clamped size of one with the scalar shape.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(reply.Result, &probe); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	if _, scalar := probe["value"]; scalar {
		value, err := decodeResult[protocol.ValueResult](reply, nil)
		return []byte{value.Value}, err
	}
	block, err := decodeResult[protocol.BlockResult](reply, nil)
	return block.Data, err
}

// WriteMemory writes one byte.
func (c *Client) WriteMemory(ctx context.Context, address, value int) (protocol.WriteResult, error) {
	return decodeResult[protocol.WriteResult](c.Call(ctx, "write_memory", map[string]any{"address": address, "value": value}))
}

// SetInput sets the raw button state of a controller port.
func (c *Client) SetInput(ctx context.Context, port, buttons int) (protocol.InputResult, error) {
	return decodeResult[protocol.InputResult](c.Call(ctx, "set_input", map[string]any{"port": port, "buttons": buttons}))
}

// GetState returns the control state.
func (c *Client) GetState(ctx context.Context) (protocol.StateResult, error) {
	return decodeResult[protocol.StateResult](c.Call(ctx, "get_state", nil))
}
