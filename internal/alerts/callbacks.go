package alerts

import (
	"errors"
	"fmt"
	"math"

	"github.com/OldStager01/alert-arbiter/pkg/models"
)

var errNoLongitudinalPlan = errors.New("longitudinal plan not received")

// Set speeds (m/s) a PCM-long car needs before speed limit control can take
// over, below and above the confirm threshold.
var pcmLongRequiredMaxSetSpeed = map[bool][2]float64{
	true:  {100 * models.KphToMs, 120 * models.KphToMs},
	false: {65 * models.MphToMs, 80 * models.MphToMs},
}

// Displayed-unit threshold selecting the low or high required set speed.
var confirmSpeedThreshold = map[bool]float64{
	true:  80,
	false: 50,
}

func speedLimitAdjustAlert(snap *models.Snapshot) (Alert, error) {
	if snap.LongitudinalPlan == nil {
		return Alert{}, errNoLongitudinalPlan
	}

	conv, unit := snap.SpeedConversion()
	speed := math.Round(snap.LongitudinalPlan.SpeedLimit.Resolver.SpeedLimit * conv)

	return Alert{
		Text1:    fmt.Sprintf("Adjusting to %d %s speed limit", int(speed), unit),
		Status:   StatusNormal,
		Size:     SizeSmall,
		Priority: PriorityLow,
		Visual:   VisualNone,
		Audible:  AudibleNone,
		Duration: seconds(4),
	}, nil
}

func speedLimitPreActiveAlert(snap *models.Snapshot) (Alert, error) {
	if snap.LongitudinalPlan == nil {
		return Alert{}, errNoLongitudinalPlan
	}

	conv, unit := snap.SpeedConversion()
	finalLast := math.Round(snap.LongitudinalPlan.SpeedLimit.Resolver.SpeedLimitFinalLast * conv)

	alert := Alert{
		Status:   StatusNormal,
		Size:     SizeNone,
		Priority: PriorityLow,
		Visual:   VisualNone,
		Audible:  AudiblePromptSingleLow,
		Duration: seconds(0.1),
	}

	// Only PCM-long cars need the driver to move the set speed.
	if snap.CarParams.OpenpilotLongitudinalControl && snap.CarParams.PcmCruise {
		bounds := pcmLongRequiredMaxSetSpeed[snap.IsMetric]
		required := bounds[1]
		if finalLast < confirmSpeedThreshold[snap.IsMetric] {
			required = bounds[0]
		}

		alert.Text1 = "Speed Limit Assist: Activation Required"
		alert.Text2 = fmt.Sprintf("Manually change set speed to %d %s to activate", int(math.Round(required*conv)), unit)
		alert.Size = SizeMid
	}

	return alert, nil
}

func wrongCarModeAlert(snap *models.Snapshot) (Alert, error) {
	text := "Enable Adaptive Cruise to Engage"
	if snap.CarParams.Brand == "honda" {
		text = "Enable Main Switch to Engage"
	}
	return NoEntryAlert(text), nil
}
