package arbiter

import (
	"fmt"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// RejectionError carries the no-entry alert that blocked an engagement.
type RejectionError struct {
	Reason Candidate
}

func (r *RejectionError) Error() string {
	text := r.Reason.Alert.Text2
	if text == "" {
		text = r.Reason.Alert.Text1
	}
	return fmt.Sprintf("%s: %s (%s)", alerts.ErrEngagementRejected, text, r.Reason.AlertType)
}

func (r *RejectionError) Unwrap() error {
	return alerts.ErrEngagementRejected
}

// CheckNoEntry resolves the no-entry alerts of the events present during an
// engagement attempt and returns the one that blocks it. Creation delays do
// not apply and a failing callback blocks the attempt. Engine state is not
// touched.
func (e *Engine) CheckNoEntry(attempted []alerts.EventName, snap *models.Snapshot) (Candidate, bool) {
	var best Candidate
	found := false

	for _, id := range attempted {
		if !e.registry.Contains(id) {
			continue
		}
		entry, ok := e.table.Lookup(id, alerts.NoEntry)
		if !ok {
			continue
		}

		c, err := e.resolve(id, alerts.NoEntry, entry, snap)
		if err != nil {
			logger.WithField("alert_type", c.AlertType).Warnf("No-entry callback failed, blocking engagement: %v", err)
		}
		if !found || c.outranks(&best) {
			best = c
			found = true
		}
	}

	return best, found
}

// Engage requests engagement. It fails with a *RejectionError wrapping
// alerts.ErrEngagementRejected when any attempted event blocks it.
func (e *Engine) Engage(attempted []alerts.EventName, snap *models.Snapshot) error {
	if reason, blocked := e.CheckNoEntry(attempted, snap); blocked {
		logger.WithField("alert_type", reason.AlertType).Info("Engagement rejected")
		return &RejectionError{Reason: reason}
	}

	if e.state != StateEnabled {
		logger.Infof("Engaged (was %s)", e.state)
	}
	e.state = StateEnabled
	return nil
}

// Disengage drops to disabled regardless of active events.
func (e *Engine) Disengage() {
	e.state = StateDisabled
}
