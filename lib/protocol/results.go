// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/json"
	"fmt"
)

// Control modes reported by load_rom and get_state.
const (
	ModeFreeRunning        = "free_running"
	ModeExternalControlled = "external_controlled"
)

// LoadResult is the load_rom success payload.
type LoadResult struct {
	ConsoleType int    `json:"console_type"`
	Path        string `json:"path"`
	Mode        string `json:"mode"`
}

// StepResult is the step_frame success payload. The camel-case keys
// are historical and kept for client compatibility.
type StepResult struct {
	FramesExecuted int    `json:"framesExecuted"`
	FrameCount     uint32 `json:"frameCount"`
}

// ValueResult is the read_memory payload for a single byte.
type ValueResult struct {
	Value uint8 `json:"value"`
}

// BlockResult is the read_memory payload for more than one byte.
type BlockResult struct {
	Address int      `json:"address"`
	Size    int      `json:"size"`
	Data    ByteList `json:"data"`
}

// WriteResult is the write_memory success payload.
type WriteResult struct {
	Address int `json:"address"`
	Value   int `json:"value"`
}

// InputResult is the set_input success payload. Buttons echoes the
// request unmasked.
type InputResult struct {
	Port    int `json:"port"`
	Buttons int `json:"buttons"`
}

// StateResult is the get_state success payload. FrameCount and PC are
// present only while a program is loaded (PC also needs a debugger).
type StateResult struct {
	ROMLoaded   bool    `json:"rom_loaded"`
	ConsoleType int     `json:"console_type"`
	Mode        string  `json:"mode"`
	FrameCount  *uint32 `json:"frame_count,omitempty"`
	PC          *uint32 `json:"pc,omitempty"`
}

// ByteList encodes as a JSON array of numbers instead of the base64
// string encoding/json uses for []byte.
type ByteList []byte

// MarshalJSON implements json.Marshaler.
func (b ByteList) MarshalJSON() ([]byte, error) {
	values := make([]uint16, len(b))
	for i, value := range b {
		values[i] = uint16(value)
	}
	return json.Marshal(values)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteList) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	out := make(ByteList, len(values))
	for i, value := range values {
		if value < 0 || value > 0xFF {
			return fmt.Errorf("byte %d out of range: %d", i, value)
		}
		out[i] = byte(value)
	}
	*b = out
	return nil
}
