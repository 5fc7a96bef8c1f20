// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Error strings shared by more than one producer.
const (
	MessageInvalidCommand = "invalid command"
	MessageTimeout        = "timeout"
)

// successReply and failureReply fix the key order of reply lines:
// "ok" first, "id" last.
type successReply struct {
	OK     bool `json:"ok"`
	Result any  `json:"result"`
	ID     int  `json:"id"`
}

type failureReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	ID    int    `json:"id"`
}

// Success renders a success reply line, newline included. A result
// that cannot be encoded turns into a failure reply for the same id.
func Success(id int, result any) []byte {
	line, err := encodeLine(successReply{OK: true, Result: result, ID: id})
	if err != nil {
		return Failure(id, fmt.Sprintf("internal: encoding result: %v", err))
	}
	return line
}

// Failure renders a failure reply line, newline included.
func Failure(id int, message string) []byte {
	line, err := encodeLine(failureReply{OK: false, Error: message, ID: id})
	if err != nil {
		// A struct of a bool, a string and an int always encodes.
		panic("protocol: encoding failure reply: " + err.Error())
	}
	return line
}

// InvalidCommand is the reply to a frame that does not decode. It
// always carries id 0 because the request's id is not trusted.
func InvalidCommand() []byte {
	return Failure(0, MessageInvalidCommand)
}

// Timeout is the reply sent when a command's result does not arrive in
// time.
func Timeout(id int) []byte {
	return Failure(id, MessageTimeout)
}

// encodeLine encodes v as one JSON line without HTML escaping, so ROM
// paths containing '&' or '<' come back as written.
func encodeLine(v any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Reply is a decoded reply line, used by clients.
type Reply struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	ID     int             `json:"id"`
}

// ParseReply decodes one reply line.
func ParseReply(line []byte) (Reply, error) {
	var reply Reply
	if err := json.Unmarshal(line, &reply); err != nil {
		return Reply{}, fmt.Errorf("decoding reply: %w", err)
	}
	return reply, nil
}

// EncodeRequest renders a request line for method with the given id
// and parameters, newline included.
func EncodeRequest(method string, id int, params map[string]any) ([]byte, error) {
	fields := make(map[string]any, len(params)+2)
	for key, value := range params {
		fields[key] = value
	}
	fields["method"] = method
	fields["id"] = id
	return encodeLine(fields)
}
