package alerts

import "errors"

var (
	// ErrUnknownEvent is returned for identifiers absent from the registry.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrInvalidMapping is returned when the alert table does not match the registry.
	ErrInvalidMapping = errors.New("invalid alert mapping")

	// ErrCallbackEvaluation is returned by callbacks that cannot compute an
	// alert from the given snapshot.
	ErrCallbackEvaluation = errors.New("alert callback evaluation failed")

	// ErrEngagementRejected carries a no-entry alert back to the engagement requester.
	ErrEngagementRejected = errors.New("engagement rejected")
)
