// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type statusRequest struct {
	Action string `cbor:"action"`
	Detail bool   `cbor:"detail,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	t.Parallel()

	value := map[string]uint64{"step_frame": 3, "get_state": 9, "load_rom": 1}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding changed between calls: %x vs %x", first, again)
		}
	}
}

func TestUntypedMapsUseStringKeys(t *testing.T) {
	t.Parallel()

	data, err := Marshal(map[string]any{"server": map[string]any{"frames": 4}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	outer, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
	if _, ok := outer["server"].(map[string]any); !ok {
		t.Errorf("nested value is %T, want map[string]any", outer["server"])
	}
}

func TestStreamCarriesSequence(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, action := range []string{"ping", "status"} {
		if err := encoder.Encode(statusRequest{Action: action}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for _, want := range []string{"ping", "status"} {
		var request statusRequest
		if err := decoder.Decode(&request); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if request.Action != want {
			t.Errorf("Action = %q, want %q", request.Action, want)
		}
	}
}

func TestRawMessageDefersDecoding(t *testing.T) {
	t.Parallel()

	data, err := Marshal(statusRequest{Action: "status", Detail: true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw RawMessage
	if err := Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	var request statusRequest
	if err := Unmarshal(raw, &request); err != nil {
		t.Fatalf("Unmarshal request: %v", err)
	}
	if !request.Detail {
		t.Error("Detail lost through RawMessage")
	}
}
