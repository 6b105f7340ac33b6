package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/auth"
)

const testConfig = `
app:
  log_level: error
arbiter:
  tick_period: 50ms
prometheus:
  enabled: false
api:
  enabled: false
  jwt_secret: test-secret
  jwt_issuer: arbiter-test
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--config", writeConfig(t)))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEventsCommand(t *testing.T) {
	out, _, err := execute(t, "events", "laneTurnLeft")
	require.NoError(t, err)
	assert.Contains(t, out, "laneTurnLeft")
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "Turning Left")
	assert.NotContains(t, out, "laneTurnRight")

	out, _, err = execute(t, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "laneTurnRight")
	assert.Contains(t, out, "(computed)")

	_, _, err = execute(t, "events", "warpDrive")
	assert.ErrorIs(t, err, alerts.ErrUnknownEvent)
}

func TestTokenCommand(t *testing.T) {
	out, _, err := execute(t, "token", "--operator", "bench-rig", "--role", auth.RoleOperator)
	require.NoError(t, err)

	svc := auth.NewService("test-secret", "arbiter-test", 0)
	claims, err := svc.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "bench-rig", claims.Operator)
	assert.Equal(t, auth.RoleOperator, claims.Role)

	_, _, err = execute(t, "token", "--operator", "x", "--role", auth.RoleViewer)
	assert.Error(t, err)
}

func TestReplayCommand(t *testing.T) {
	var log strings.Builder
	log.WriteString(`{"frame": 1, "events": [{"name": "laneTurnLeft", "types": ["warning"]}]}` + "\n")
	for frame := 2; frame <= 30; frame++ {
		fmt.Fprintf(&log, `{"frame": %d, "events": []}`+"\n", frame)
	}
	path := filepath.Join(t.TempDir(), "drive.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(log.String()), 0o600))

	out, summary, err := execute(t, "replay", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Turning Left")
	assert.Contains(t, out, "cleared")
	assert.Contains(t, summary, "30 frames")
	assert.Contains(t, summary, "1 alert changes")
	assert.Contains(t, summary, "1 clears")
}

func TestReplayCommand_MissingFile(t *testing.T) {
	_, _, err := execute(t, "replay", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv("ARBITER_DATABASE_ENABLED", "true")
	t.Setenv("ARBITER_DATABASE_DRIVER", "sqlite")
	t.Setenv("ARBITER_DATABASE_PATH", filepath.Join(t.TempDir(), "history.db"))

	out, _, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 001_alert_history.sql")

	out, _, err = execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")

	out, _, err = execute(t, "migrate", "--prune-older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned 0 history rows")
}
