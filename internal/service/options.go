package service

import (
	"time"
)

type Option func(*BookingService)

// WithClock replaces time.Now as the source of "now".
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithCreateTolerance(d time.Duration) Option {
	return func(s *BookingService) {
		s.window = NewWindowValidator(d)
	}
}

// WithMaxPageSize bounds the size of listing pages; zero disables the bound.
func WithMaxPageSize(n int) Option {
	return func(s *BookingService) {
		s.maxPageSize = n
	}
}
