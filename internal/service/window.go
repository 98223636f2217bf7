package service

import (
	"time"

	"shareit/internal/domain"
)

// WindowValidator checks booking time windows.
// Tolerance is how far in the past a start may lie and still be accepted.
type WindowValidator struct {
	Tolerance time.Duration
}

func NewWindowValidator(tolerance time.Duration) WindowValidator {
	if tolerance < 0 {
		tolerance = 0
	}
	return WindowValidator{Tolerance: tolerance}
}

// Validate rejects empty and inverted windows.
func (v WindowValidator) Validate(start, end, _ time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.NotAvailable(domain.ErrInvalidWindow, "Booking start and end are required")
	}
	if !start.Before(end) {
		return domain.NotAvailable(domain.ErrInvalidWindow, "Booking end must be after start")
	}
	return nil
}

func (v WindowValidator) IsNotInPast(t, now time.Time) bool {
	return !t.Before(now.Add(-v.Tolerance))
}

// ValidateNew applies the creation-time rules: both bounds not in the past, start before end.
func (v WindowValidator) ValidateNew(start, end, now time.Time) error {
	if err := v.Validate(start, end, now); err != nil {
		return err
	}
	if !v.IsNotInPast(start, now) || !v.IsNotInPast(end, now) {
		return domain.NotAvailable(domain.ErrInvalidWindow, "Booking cannot start in the past")
	}
	return nil
}
