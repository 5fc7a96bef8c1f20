// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/bureau-foundation/tickwire/lib/bridge"
)

var (
	// ErrMissingMethod is returned for a request without a string
	// "method" field.
	ErrMissingMethod = errors.New("missing method")

	// ErrUnknownMethod is returned for a method name that is not one
	// of the six tickwire methods.
	ErrUnknownMethod = errors.New("unknown method")
)

var kindByMethod = func() map[string]bridge.Kind {
	methods := make(map[string]bridge.Kind, len(bridge.Kinds))
	for _, kind := range bridge.Kinds {
		methods[kind.String()] = kind
	}
	return methods
}()

// Decode parses one request frame into a command. It does not look at
// emulator state and never blocks.
//
// Absent or non-numeric parameters take the method's default:
//
//	load_rom      path ""
//	step_frame    count 1
//	read_memory   address -1, size 1
//	write_memory  address -1, value -1
//	set_input     port 0, buttons 0
//
// The request id defaults to 0.
func Decode(frame []byte) (*bridge.Command, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}

	method := stringField(fields, "method")
	if method == "" {
		return nil, ErrMissingMethod
	}
	kind, ok := kindByMethod[method]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMethod, method)
	}

	cmd := &bridge.Command{
		Kind: kind,
		ID:   intField(fields, "id", 0),
	}
	switch kind {
	case bridge.LoadProgram:
		cmd.Path = stringField(fields, "path")
	case bridge.StepTicks:
		cmd.Count = intField(fields, "count", 1)
	case bridge.ReadMemory:
		cmd.Address = intField(fields, "address", -1)
		cmd.Size = intField(fields, "size", 1)
	case bridge.WriteMemory:
		cmd.Address = intField(fields, "address", -1)
		cmd.Value = intField(fields, "value", -1)
	case bridge.SetInput:
		cmd.Port = intField(fields, "port", 0)
		cmd.Buttons = intField(fields, "buttons", 0)
	case bridge.GetStatus:
	}
	return cmd, nil
}

// stringField returns the named field if it is a JSON string, else "".
func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

// intField returns the named field if it is a JSON number, else
// fallback. Fractions truncate toward zero; values beyond 32 bits
// saturate.
func intField(fields map[string]json.RawMessage, name string, fallback int) int {
	raw, ok := fields[name]
	if !ok || len(raw) == 0 {
		return fallback
	}
	if first := raw[0]; first != '-' && (first < '0' || first > '9') {
		return fallback
	}

	text := string(raw)
	if value, err := strconv.ParseInt(text, 10, 64); err == nil {
		return saturate(float64(value))
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fallback
	}
	return saturate(math.Trunc(value))
}

func saturate(value float64) int {
	switch {
	case value > math.MaxInt32:
		return math.MaxInt32
	case value < math.MinInt32:
		return math.MinInt32
	default:
		return int(value)
	}
}
