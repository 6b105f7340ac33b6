package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/alert-arbiter/pkg/models"
)

func TestBanner(t *testing.T) {
	rec := &models.AlertRecord{
		Frame:     120,
		Kind:      models.EventTypeAlertChanged,
		AlertType: "controlsMismatchLateral/immediateDisable",
		Priority:  "highest",
		Text1:     "TAKE CONTROL IMMEDIATELY",
		Text2:     "Controls Mismatch: Lateral",
		State:     "disabled",
		Fallback:  true,
	}

	out := Banner(rec, 40)
	assert.Contains(t, out, "TAKE CONTROL IMMEDIATELY")
	assert.Contains(t, out, "Controls Mismatch: Lateral")
	assert.Contains(t, out, "frame 120")
	assert.Contains(t, out, "fallback")
	assert.Greater(t, len(strings.Split(out, "\n")), 3)
}

func TestBanner_SilentAndCleared(t *testing.T) {
	silent := Banner(&models.AlertRecord{Frame: 3, Kind: models.EventTypeAlertChanged, AlertType: "silentDoorOpen/warning"}, 0)
	assert.Contains(t, silent, "(silent) silentDoorOpen/warning")
	assert.NotContains(t, silent, "\n")

	cleared := Banner(&models.AlertRecord{Frame: 9, Kind: models.EventTypeAlertCleared}, 0)
	assert.Contains(t, cleared, "no alert")
}

func TestLine(t *testing.T) {
	assert.Contains(t, Line(&models.AlertRecord{Frame: 5, Kind: models.EventTypeAlertCleared}), "cleared")
	assert.Contains(t, Line(&models.AlertRecord{Frame: 5, Kind: models.EventTypeDisengaged, AlertType: "lkasDisable/userDisable"}), "disengaged")

	line := Line(&models.AlertRecord{Frame: 5, Kind: models.EventTypeAlertChanged, AlertType: "laneTurnLeft/warning", Priority: "lower", Text1: "Turning Left"})
	assert.Contains(t, line, "laneTurnLeft/warning")
	assert.Contains(t, line, "Turning Left")
}

func TestTerminalSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewTerminalSink(&buf, 0, true)
	assert.Equal(t, "terminal", s.Name())

	require.NoError(t, s.Publish(context.Background(), &models.AlertRecord{Frame: 1, Kind: models.EventTypeAlertChanged, AlertType: "e2eChime/permanent", Priority: "low"}))
	require.NoError(t, s.Publish(context.Background(), &models.AlertRecord{Frame: 2, Kind: models.EventTypeAlertCleared}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "(silent)")
	assert.Contains(t, lines[1], "cleared")
	assert.NoError(t, s.Close())
}
