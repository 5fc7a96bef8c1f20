// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build information for the tickwire binaries.
//
// The variables are injected at link time:
//
//	go build -ldflags "-X github.com/bureau-foundation/tickwire/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// and default to "unknown" / "0.1.0-dev" in development builds and
// tests.
package version
