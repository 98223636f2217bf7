package service

import (
	"context"
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// ListBookerBookings lists bookings made by bookerID, newest start first.
func (s *BookingService) ListBookerBookings(ctx context.Context, bookerID int64, state string, from, size int) ([]*models.Booking, error) {
	return s.listBookings(ctx, models.ScopeBooker, bookerID, state, from, size)
}

// ListOwnerBookings lists bookings on items owned by ownerID, newest start first.
func (s *BookingService) ListOwnerBookings(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.Booking, error) {
	return s.listBookings(ctx, models.ScopeOwner, ownerID, state, from, size)
}

func (s *BookingService) listBookings(ctx context.Context, scope models.BookingScope, userID int64, rawState string, from, size int) ([]*models.Booking, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	page, err := s.pageRequest(from, size)
	if err != nil {
		return nil, err
	}

	state, ok := models.ParseBookingState(rawState)
	if !ok {
		return nil, domain.UnsupportedState(rawState)
	}

	query := models.BookingQuery{Scope: scope, UserID: userID, State: state, Page: page}
	bookings, err := s.repo.ListBookings(ctx, query, s.now())
	if err != nil {
		return nil, fmt.Errorf("list %s bookings: %w", scope, err)
	}
	return bookings, nil
}

func (s *BookingService) pageRequest(from, size int) (models.PageRequest, error) {
	page, err := pageOf(from, size)
	if err != nil {
		return page, err
	}
	if s.maxPageSize > 0 && page.Size > s.maxPageSize {
		return page, domain.Validation("Invalid paging parameters: size=%d exceeds %d", size, s.maxPageSize)
	}
	return page, nil
}
