package models

import "strings"

// BookingState is the symbolic filter used when listing bookings.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var bookingStates = map[BookingState]struct{}{
	StateAll:      {},
	StateCurrent:  {},
	StatePast:     {},
	StateFuture:   {},
	StateWaiting:  {},
	StateRejected: {},
}

// ParseBookingState resolves a query parameter into a known filter.
// An empty value means ALL.
func ParseBookingState(raw string) (BookingState, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return StateAll, true
	}
	state := BookingState(normalized)
	if _, ok := bookingStates[state]; !ok {
		return "", false
	}
	return state, true
}

// BookingScope selects whose bookings are listed.
type BookingScope int

const (
	ScopeBooker BookingScope = iota
	ScopeOwner
)

func (s BookingScope) String() string {
	if s == ScopeOwner {
		return "owner"
	}
	return "booker"
}

// BookingQuery is a resolved listing request handed to the store.
type BookingQuery struct {
	Scope  BookingScope
	UserID int64
	State  BookingState
	Page   PageRequest
}
