// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol implements tickwire's wire format: newline-delimited
// JSON objects over a byte stream.
//
// A request is one line:
//
//	{"method":"read_memory","id":4,"address":512,"size":16}
//
// and every request gets exactly one reply line:
//
//	{"ok":true,"result":{"address":512,"size":16,"data":[...]},"id":4}
//	{"ok":false,"error":"no ROM loaded","id":4}
//
// [Framer] cuts a byte stream into frames. [Decode] turns a frame into a
// bridge.Command; it recognizes exactly six methods and fills absent
// numeric parameters with per-method defaults. Some defaults are
// sentinels rather than zero (an absent address decodes as -1 so the
// handler can tell "missing" from "address 0"). [Success] and [Failure]
// render reply lines, and the result types in results.go fix the field
// names and order of every success payload.
//
// Requests that cannot be decoded never reach the bridge: the
// connection replies [InvalidCommand] (id 0) straight away.
package protocol
