package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "door open", SanitizeString("  door\x00 open\x07 "))
	assert.Equal(t, "a\tb\nc", SanitizeString("a\tb\nc"))
}

func TestValidateEventName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"camel case", "laneTurnLeft", false},
		{"single word", "seatbelt", false},
		{"with digits", "e2eChime", false},
		{"empty", "", true},
		{"upper first", "LaneTurnLeft", true},
		{"separator", "lane_turn_left", true},
		{"path", "../etc", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEventName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOperator(t *testing.T) {
	assert.NoError(t, ValidateOperator("jane.doe"))
	assert.NoError(t, ValidateOperator("bench-rig_2"))
	assert.ErrorIs(t, ValidateOperator(""), ErrInvalidInput)
	assert.ErrorIs(t, ValidateOperator("ab"), ErrInvalidInput)
	assert.ErrorIs(t, ValidateOperator("has space"), ErrInvalidInput)
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 50, false},
		{"10", 10, false},
		{"9999", 500, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLimit(tt.raw, 50, 500)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := ParseSince("", now)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = ParseSince("15m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-15*time.Minute), got)

	got, err = ParseSince("2024-02-29T08:30:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 8, 30, 0, 0, time.UTC), got)

	_, err = ParseSince("yesterday", now)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseSince("-5m", now)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
