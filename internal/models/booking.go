package models

import (
	"strings"
	"time"
)

// BookingStatus is the approval state of a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// ParseBookingStatus accepts exactly the three stored statuses.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	switch s := BookingStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusWaiting, StatusApproved, StatusRejected:
		return s, true
	default:
		return "", false
	}
}

func (s BookingStatus) String() string {
	return string(s)
}

// Booking is a reservation of one item by one user for [Start, End].
// OwnerID, ItemName and BookerName are denormalized from items/users on read.
type Booking struct {
	ID         int64         `json:"id"`
	ItemID     int64         `json:"item_id"`
	ItemName   string        `json:"item_name"`
	OwnerID    int64         `json:"owner_id"`
	BookerID   int64         `json:"booker_id"`
	BookerName string        `json:"booker_name"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Status     BookingStatus `json:"status"`
	Version    int64         `json:"version"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// IsParticipant reports whether userID is the booker or the item owner.
func (b *Booking) IsParticipant(userID int64) bool {
	return b.BookerID == userID || b.OwnerID == userID
}

// NewBooking is the booker's request to reserve an item.
type NewBooking struct {
	ItemID int64     `json:"item_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// BookingShort is the projection used in item summaries.
type BookingShort struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func (b *Booking) Short() *BookingShort {
	if b == nil {
		return nil
	}
	return &BookingShort{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}

// ItemBookingSummary holds the owner-only last/next approved bookings of an item.
type ItemBookingSummary struct {
	LastBooking *BookingShort `json:"last_booking"`
	NextBooking *BookingShort `json:"next_booking"`
}
