// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package server

import (
	"fmt"
	"net"
)

// listen opens a TCP listener. Outside Linux the backlog is the system
// default; the server still serves one connection at a time.
func listen(address string) (net.Listener, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", address, err)
	}
	return listener, nil
}
