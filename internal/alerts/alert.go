package alerts

import (
	"errors"
	"fmt"
	"time"
)

// Alert is an immutable description of one user-facing notification.
type Alert struct {
	Text1         string        `json:"text1"`
	Text2         string        `json:"text2"`
	Status        AlertStatus   `json:"status"`
	Size          AlertSize     `json:"size"`
	Priority      Priority      `json:"priority"`
	Visual        VisualAlert   `json:"visual"`
	Audible       AudibleAlert  `json:"audible"`
	Duration      time.Duration `json:"duration"`
	CreationDelay time.Duration `json:"creation_delay"`
}

// Silent reports whether the alert occupies the arbitration slot without
// any visible UI.
func (a Alert) Silent() bool {
	return a.Size == SizeNone && a.Text1 == "" && a.Text2 == ""
}

func (a Alert) Validate() error {
	var errs []error

	if !a.Status.Valid() {
		errs = append(errs, fmt.Errorf("invalid status %q", a.Status))
	}
	if !a.Size.Valid() {
		errs = append(errs, fmt.Errorf("invalid size %q", a.Size))
	}
	if !a.Priority.Valid() {
		errs = append(errs, fmt.Errorf("invalid priority %d", a.Priority))
	}
	if !a.Visual.Valid() {
		errs = append(errs, fmt.Errorf("invalid visual alert %q", a.Visual))
	}
	if !a.Audible.Valid() {
		errs = append(errs, fmt.Errorf("invalid audible alert %q", a.Audible))
	}
	if a.Duration < 0 {
		errs = append(errs, errors.New("duration must not be negative"))
	}
	if a.CreationDelay < 0 {
		errs = append(errs, errors.New("creation delay must not be negative"))
	}

	return errors.Join(errs...)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// NoEntryAlert blocks an engagement attempt.
func NoEntryAlert(text2 string) Alert {
	return Alert{
		Text1:    "openpilot Unavailable",
		Text2:    text2,
		Status:   StatusNormal,
		Size:     SizeMid,
		Priority: PriorityLow,
		Visual:   VisualNone,
		Audible:  AudibleRefuse,
		Duration: seconds(3),
	}
}

func SoftDisableAlert(text2 string) Alert {
	return Alert{
		Text1:    "TAKE CONTROL IMMEDIATELY",
		Text2:    text2,
		Status:   StatusUserPrompt,
		Size:     SizeFull,
		Priority: PriorityMid,
		Visual:   VisualSteerRequired,
		Audible:  AudibleWarningSoft,
		Duration: seconds(2),
	}
}

func ImmediateDisableAlert(text2 string) Alert {
	return Alert{
		Text1:    "TAKE CONTROL IMMEDIATELY",
		Text2:    text2,
		Status:   StatusCritical,
		Size:     SizeFull,
		Priority: PriorityHighest,
		Visual:   VisualSteerRequired,
		Audible:  AudibleWarningImmediate,
		Duration: seconds(4),
	}
}

// EngagementAlert is the silent chime played on engage/disengage.
func EngagementAlert(audible AudibleAlert) Alert {
	return Alert{
		Status:   StatusNormal,
		Size:     SizeNone,
		Priority: PriorityMid,
		Visual:   VisualNone,
		Audible:  audible,
		Duration: seconds(0.2),
	}
}

type PermanentOption func(*Alert)

func WithText2(text2 string) PermanentOption {
	return func(a *Alert) {
		a.Text2 = text2
		a.Size = SizeMid
	}
}

func WithDuration(d time.Duration) PermanentOption {
	return func(a *Alert) { a.Duration = d }
}

func WithPriority(p Priority) PermanentOption {
	return func(a *Alert) { a.Priority = p }
}

func WithCreationDelay(d time.Duration) PermanentOption {
	return func(a *Alert) { a.CreationDelay = d }
}

// NormalPermanentAlert is a small informational banner.
func NormalPermanentAlert(text1 string, opts ...PermanentOption) Alert {
	a := Alert{
		Text1:    text1,
		Status:   StatusNormal,
		Size:     SizeSmall,
		Priority: PriorityLower,
		Visual:   VisualNone,
		Audible:  AudibleNone,
		Duration: seconds(0.2),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// ControlsMismatchAlert replaces any alert whose callback could not be
// evaluated.
func ControlsMismatchAlert() Alert {
	return ImmediateDisableAlert("Controls Mismatch")
}
