// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/alecthomas/chroma/v2/quick"
)

// WriteJSON writes value as indented JSON. On a terminal the output is
// syntax highlighted; anywhere else it is plain so pipes get clean
// JSON.
func WriteJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if IsTerminal(w) {
		if highlighted, err := highlightJSON(data); err == nil {
			data = highlighted
		}
	}
	_, err = w.Write(data)
	return err
}

// WriteRawJSON re-indents an already encoded JSON document and writes
// it like WriteJSON. Input that is not valid JSON is written verbatim.
func WriteRawJSON(w io.Writer, raw []byte) error {
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		_, err = w.Write(append(bytes.TrimRight(raw, "\n"), '\n'))
		return err
	}
	indented.WriteByte('\n')
	data := indented.Bytes()
	if IsTerminal(w) {
		if highlighted, err := highlightJSON(data); err == nil {
			data = highlighted
		}
	}
	_, err := w.Write(data)
	return err
}

func highlightJSON(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	if err := quick.Highlight(&buffer, string(data), "json", "terminal256", "monokai"); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
