// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helper shared by the tickwire
// binaries. Every main is
//
//	func main() {
//		if err := run(); err != nil {
//			process.Fatal(err)
//		}
//	}
//
// so errors that happen before the logger exists still reach the user.
package process
