// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"errors"
	"io"
)

// DefaultMaxFrameBytes bounds a single request line.
const DefaultMaxFrameBytes = 64 * 1024

// readChunkSize is how much Framer asks the reader for at a time.
const readChunkSize = 4096

// ErrFrameTooLong is returned by Framer.Next for a line longer than the
// frame limit. The framer skips the rest of that line and keeps going,
// so the caller can reply and carry on.
var ErrFrameTooLong = errors.New("frame too long")

// Framer splits a byte stream into newline-terminated frames. A
// trailing "\r" is stripped and empty lines are skipped. Bytes after
// the last newline when the stream ends are dropped.
type Framer struct {
	reader   io.Reader
	maxFrame int

	chunk  []byte
	buffer []byte

	// discarding is set after an oversized frame has been reported and
	// cleared once its terminating newline has been consumed.
	discarding bool

	err error
}

// NewFramer returns a Framer reading from r. maxFrame <= 0 selects
// DefaultMaxFrameBytes.
func NewFramer(r io.Reader, maxFrame int) *Framer {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameBytes
	}
	return &Framer{
		reader:   r,
		maxFrame: maxFrame,
		chunk:    make([]byte, readChunkSize),
	}
}

// Next returns the next frame. It blocks in Read until a full frame is
// buffered. The returned slice is owned by the caller. Once the
// underlying reader fails, every buffered frame is still returned and
// then Next returns that error (io.EOF for a clean close).
func (f *Framer) Next() ([]byte, error) {
	for {
		frame, ok, err := f.split()
		if ok {
			return frame, err
		}
		if f.err != nil {
			return nil, f.err
		}
		n, err := f.reader.Read(f.chunk)
		f.buffer = append(f.buffer, f.chunk[:n]...)
		if err != nil {
			f.err = err
		}
	}
}

// split extracts the next frame from the buffer. ok is false when more
// input is needed.
func (f *Framer) split() (frame []byte, ok bool, err error) {
	for {
		newline := bytes.IndexByte(f.buffer, '\n')
		if newline < 0 {
			if f.discarding {
				f.buffer = f.buffer[:0]
				return nil, false, nil
			}
			if len(f.buffer) > f.maxFrame {
				f.buffer = f.buffer[:0]
				f.discarding = true
				return nil, true, ErrFrameTooLong
			}
			return nil, false, nil
		}

		line := f.buffer[:newline]
		f.buffer = f.buffer[newline+1:]

		if f.discarding {
			f.discarding = false
			continue
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) == 0 {
			continue
		}
		if len(line) > f.maxFrame {
			return nil, true, ErrFrameTooLong
		}
		return bytes.Clone(line), true, nil
	}
}
