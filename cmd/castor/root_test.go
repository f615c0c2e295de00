// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"castor-cli/internal/config"
)

func TestGetVersionString(t *testing.T) {
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})

	Version, Commit, BuildDate = "v0.3.0", "abc1234", "2026-01-02T03:04:05Z"
	if got, want := getVersionString(), "v0.3.0 (commit: abc1234, built: 2026-01-02T03:04:05Z)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}

	Version = "dev"
	if got, want := getVersionString(), "dev (built from source)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogLevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "module", "castor.lua")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "castor.lua") {
		t.Errorf("warn record missing: %q", out)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
}
