// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the tickwire CLI:
// a [Command] tree dispatched by the first positional argument,
// per-command pflag flag sets, typo suggestions, JSON output that is
// syntax highlighted on a terminal, and number parsing that accepts
// the hex addresses people copy out of debuggers.
package cli
