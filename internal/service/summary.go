package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
)

// ItemBookingSummary resolves the last and next approved bookings of an item.
// Only the owner sees them; everyone else gets an empty summary.
func (s *BookingService) ItemBookingSummary(ctx context.Context, itemID, viewerID int64, now time.Time) (models.ItemBookingSummary, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return models.ItemBookingSummary{}, domain.NotFound(nil, "Item with id %d not found", itemID)
	}
	if err != nil {
		return models.ItemBookingSummary{}, fmt.Errorf("load item %d: %w", itemID, err)
	}
	return s.summaryFor(ctx, item, viewerID, now)
}

func (s *BookingService) summaryFor(ctx context.Context, item *models.Item, viewerID int64, now time.Time) (models.ItemBookingSummary, error) {
	var summary models.ItemBookingSummary
	if item.OwnerID != viewerID {
		return summary, nil
	}

	last, err := s.repo.GetLastApprovedBooking(ctx, item.ID, now)
	if err != nil {
		return summary, fmt.Errorf("last booking of item %d: %w", item.ID, err)
	}
	next, err := s.repo.GetNextApprovedBooking(ctx, item.ID, now)
	if err != nil {
		return summary, fmt.Errorf("next booking of item %d: %w", item.ID, err)
	}

	summary.LastBooking = last.Short()
	summary.NextBooking = next.Short()
	return summary, nil
}
