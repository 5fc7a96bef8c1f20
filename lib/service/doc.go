// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the operator socket: a CBOR
// request/response protocol on a Unix socket, separate from the
// client-facing TCP port.
//
// Each connection carries exactly one request and one response. A
// request is a CBOR map with an "action" field plus action-specific
// fields; the response is a [Response] envelope. tickwire-host
// registers "ping" and "status" on a [SocketServer]; the tickwire CLI
// calls them through a [Client].
//
// The socket has no authentication. Filesystem permissions on the
// socket path decide who can reach it.
package service
