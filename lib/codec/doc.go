// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds tickwire's CBOR configuration.
//
// tickwire speaks two formats. Clients driving the emulator use
// newline-delimited JSON (lib/protocol). The operator socket, which
// reports status and counters to the tickwire CLI, uses CBOR through
// this package so every encoder and decoder agrees on one
// configuration: Core Deterministic Encoding (RFC 8949 §4.2) on the
// way out, map[string]any for untyped maps on the way in.
//
//	data, err := codec.Marshal(value)
//	encoder := codec.NewEncoder(conn)
//
// Types that only cross the operator socket carry `cbor` struct tags.
package codec
