package alerts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOverrides = `
[events.silentReverseGear.permanent]
text1 = "R"
creation_delay = "250ms"

[events.laneTurnLeft.warning]
priority = "mid"
duration = "1.5s"
`

func TestDecodeOverrides(t *testing.T) {
	o, err := DecodeOverrides(sampleOverrides)
	require.NoError(t, err)

	table, err := DefaultCatalog(o)
	require.NoError(t, err)

	entry, ok := table.Lookup(SilentReverseGear, Permanent)
	require.True(t, ok)
	a, _ := entry.StaticAlert()
	assert.Equal(t, "R", a.Text1)
	assert.Equal(t, 250*time.Millisecond, a.CreationDelay)
	assert.Equal(t, SizeFull, a.Size)

	entry, ok = table.Lookup(LaneTurnLeft, Warning)
	require.True(t, ok)
	a, _ = entry.StaticAlert()
	assert.Equal(t, PriorityMid, a.Priority)
	assert.Equal(t, 1500*time.Millisecond, a.Duration)
}

func TestDefaultCatalog_OverrideErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{name: "unknown event", toml: "[events.warpDrive.warning]\ntext1 = \"x\"\n"},
		{name: "unknown context", toml: "[events.laneTurnLeft.sometimes]\ntext1 = \"x\"\n"},
		{name: "undefined context", toml: "[events.laneTurnLeft.noEntry]\ntext1 = \"x\"\n"},
		{name: "computed entry", toml: "[events.wrongCarModeAlertOnly.warning]\ntext1 = \"x\"\n"},
		{name: "invalid result", toml: "[events.laneTurnLeft.warning]\nsize = \"huge\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := DecodeOverrides(tt.toml)
			require.NoError(t, err)

			_, err = DefaultCatalog(o)
			assert.ErrorIs(t, err, ErrInvalidMapping)
		})
	}
}

func TestDecodeOverrides_BadPriority(t *testing.T) {
	_, err := DecodeOverrides("[events.laneTurnLeft.warning]\npriority = \"urgent\"\n")
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "alerts.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleOverrides), 0o600))

	o, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Contains(t, o, "silentReverseGear")

	none, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = LoadOverrides(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	stray := filepath.Join(dir, "stray.toml")
	require.NoError(t, os.WriteFile(stray, []byte("[events.laneTurnLeft.warning]\ncolour = \"red\"\n"), 0o600))
	_, err = LoadOverrides(stray)
	assert.ErrorIs(t, err, ErrInvalidMapping)
}
