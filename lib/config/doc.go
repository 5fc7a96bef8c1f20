// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads tickwire-host configuration.
//
// Configuration comes from a single file named by the --config flag or
// the TICKWIRE_CONFIG environment variable, in that order. There is no
// search path and no per-key environment override. With neither set,
// [Default] is used as is.
//
// Files ending in .yaml or .yml are YAML. Files ending in .json or
// .jsonc are JSON with comments and trailing commas allowed; they are
// normalized to plain JSON and then decoded by the same YAML decoder,
// so both formats share one set of struct tags and one set of rules.
// Unknown keys are errors.
//
// Path values may reference ${VAR} or ${VAR:-default}.
package config
