package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// Event names are lower camel case identifiers, up to 64 chars
	eventNameRegex = regexp.MustCompile(`^[a-z][a-zA-Z0-9]{0,63}$`)

	// Operator names are alphanumeric with dots, hyphens and underscores, 3-50 chars
	operatorRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{2,49}$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except newline and tab
	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateEventName checks the shape of an event name taken from a request.
// Whether the event exists is up to the alert table.
func ValidateEventName(name string) error {
	name = SanitizeString(name)

	if name == "" {
		return fmt.Errorf("%w: event name cannot be empty", ErrInvalidInput)
	}
	if !eventNameRegex.MatchString(name) {
		return fmt.Errorf("%w: event name %q must be a lower camel case identifier", ErrInvalidInput, name)
	}
	return nil
}

// ValidateOperator checks the name embedded in an operator token.
func ValidateOperator(operator string) error {
	operator = SanitizeString(operator)

	if operator == "" {
		return fmt.Errorf("%w: operator cannot be empty", ErrInvalidInput)
	}
	if len(operator) < 3 {
		return fmt.Errorf("%w: operator must be at least 3 characters", ErrInvalidInput)
	}
	if len(operator) > 50 {
		return fmt.Errorf("%w: operator must not exceed 50 characters", ErrInvalidInput)
	}
	if !operatorRegex.MatchString(operator) {
		return fmt.Errorf("%w: operator may only contain letters, numbers, dots, hyphens and underscores", ErrInvalidInput)
	}
	return nil
}

// ParseLimit reads a page size. Empty means def; values above max are
// clamped.
func ParseLimit(raw string, def, max int) (int, error) {
	raw = SanitizeString(raw)
	if raw == "" {
		return def, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be a number", ErrInvalidInput)
	}
	if limit < 1 {
		return 0, fmt.Errorf("%w: limit must be at least 1", ErrInvalidInput)
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit, nil
}

// ParseSince accepts an RFC3339 timestamp or a duration looking back from
// now, such as "15m". Empty means the zero time.
func ParseSince(raw string, now time.Time) (time.Time, error) {
	raw = SanitizeString(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: since must be RFC3339 or a duration", ErrInvalidInput)
	}
	if d < 0 {
		return time.Time{}, fmt.Errorf("%w: since duration cannot be negative", ErrInvalidInput)
	}
	return now.Add(-d), nil
}
