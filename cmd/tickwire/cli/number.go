// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"math"
	"strconv"
)

// ParseNumber parses a decimal, 0x hex, 0o octal or 0b binary integer.
// Underscores between digits are allowed. The result fits in an int32,
// which is the range the wire protocol carries.
func ParseNumber(text string) (int, error) {
	value, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", text)
	}
	if value < math.MinInt32 || value > math.MaxInt32 {
		return 0, fmt.Errorf("number %s out of range", text)
	}
	return int(value), nil
}

// NumberValue is a pflag.Value that accepts the same syntax as
// ParseNumber.
type NumberValue int

// Set implements pflag.Value.
func (n *NumberValue) Set(text string) error {
	value, err := ParseNumber(text)
	if err != nil {
		return err
	}
	*n = NumberValue(value)
	return nil
}

func (n *NumberValue) String() string { return strconv.Itoa(int(*n)) }

// Type implements pflag.Value.
func (n *NumberValue) Type() string { return "number" }
