// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	saved := []string{Version, GitCommit, GitDirty, BuildTime}
	t.Cleanup(func() {
		Version, GitCommit, GitDirty, BuildTime = saved[0], saved[1], saved[2], saved[3]
	})

	Version, GitCommit, GitDirty, BuildTime = "1.2.3", "abc1234", "true", "2026-10-01T00:00:00Z"
	if got := Info(); got != "1.2.3 (abc1234-dirty, 2026-10-01T00:00:00Z)" {
		t.Errorf("Info() = %q", got)
	}
	GitDirty = "false"
	if got := Info(); got != "1.2.3 (abc1234, 2026-10-01T00:00:00Z)" {
		t.Errorf("Info() = %q", got)
	}
}

func TestPrint(t *testing.T) {
	var buffer bytes.Buffer
	Print(&buffer, "tickwire-host")
	output := buffer.String()
	if !strings.HasPrefix(output, "tickwire-host "+Info()) || !strings.Contains(output, "Go: ") {
		t.Errorf("Print output = %q", output)
	}
}
