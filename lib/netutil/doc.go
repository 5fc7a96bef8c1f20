// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors so that ordinary client
// disconnects stay out of error logs.
package netutil
