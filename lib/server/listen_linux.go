// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package server

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listen opens a TCP listener on address with a listen backlog of
// one. net.Listen always uses the system maximum, so the socket is
// built by hand and then handed to the net package.
func listen(address string) (net.Listener, error) {
	tcpAddress, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", address, err)
	}

	family := unix.AF_INET
	var sockaddr unix.Sockaddr
	if ip4 := tcpAddress.IP.To4(); ip4 != nil || tcpAddress.IP == nil {
		inet4 := &unix.SockaddrInet4{Port: tcpAddress.Port}
		if ip4 != nil {
			copy(inet4.Addr[:], ip4)
		}
		sockaddr = inet4
	} else {
		family = unix.AF_INET6
		inet6 := &unix.SockaddrInet6{Port: tcpAddress.Port}
		copy(inet6.Addr[:], tcpAddress.IP.To16())
		sockaddr = inet6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("creating socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setting SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sockaddr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("binding %s: %w", address, err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listening on %s: %w", address, err)
	}

	file := os.NewFile(uintptr(fd), "tickwire-listener")
	defer file.Close()
	listener, err := net.FileListener(file)
	if err != nil {
		return nil, fmt.Errorf("wrapping listener: %w", err)
	}
	return listener, nil
}
