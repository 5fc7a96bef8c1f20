// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for tickwire packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so a broken test fails instead of hanging. They are the
// only place tests use real wall-clock timeouts; everything that is
// actually under test gets a clock.FakeClock.
//
// [SocketDir] creates a short /tmp directory for Unix sockets, whose
// paths are limited to 108 bytes. [WriteFile] drops a fixture file
// (typically a ROM image) into a test's temporary directory.
//
// All helpers call t.Fatalf on failure rather than returning errors.
// This package has no tickwire-internal dependencies.
package testutil
