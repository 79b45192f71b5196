package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fullstorydev/go/succession/internal/config"
	"gotest.tools/v3/assert"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRelayCommand(t *testing.T) {
	tests := []struct {
		policy string
		want   string
	}{
		{config.PolicyNone, "late reader of source sees 5 value(s): [1 2 3 4 5]\n"},
		{config.PolicyDrop, "late reader of source sees 0 value(s): []\n"},
		{config.PolicyDropAll, "late reader of source sees 0 value(s): []\n"},
		{config.PolicyKeepLast, "late reader of source sees 2 value(s): [4 5]\n"},
		{config.PolicySum, "late reader of source sees 1 value(s): [15]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			out, err := execute(t, "relay", "--count", "5", "--readers", "3", "--policy", tt.policy, "--keep", "2")
			assert.NilError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRelayCommand_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NilError(t, os.WriteFile(path, []byte("relay:\n  count: 3\n  rate: 1000\n  burst: 1\ncompaction:\n  policy: sum\n"), 0o644))

	out, err := execute(t, "relay", "--config", path)
	assert.NilError(t, err)
	assert.Equal(t, "late reader of source sees 1 value(s): [6]\n", out)
}

func TestRelayCommand_InvalidFlags(t *testing.T) {
	_, err := execute(t, "relay", "--policy", "shuffle")
	assert.ErrorContains(t, err, "invalid flags")
}

func TestRosterCommand(t *testing.T) {
	out, err := execute(t, "roster")
	assert.NilError(t, err)
	assert.Equal(t, `early subscriber:
  JOIN User 1
  JOIN User 2
  CHAT User 1: hello
  JOIN User 3
  LEAVE User 2
  CHAT User 3: hi all
  LEAVE User 1
late subscriber:
  JOIN User 1
  JOIN User 3
  LEAVE User 1
`, out)
}
