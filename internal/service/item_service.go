package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// ItemService owns the item catalog and comments. Booking summaries and
// comment eligibility come from the booking service.
type ItemService struct {
	repo     domain.Repository
	bookings domain.BookingService
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, bookings domain.BookingService, now func() time.Time, logger *zerolog.Logger) *ItemService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ItemService{
		repo:     repo,
		bookings: bookings,
		now:      now,
		logger:   logger,
	}
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, req models.NewItem) (*models.Item, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	switch {
	case req.Available == nil:
		return nil, domain.Validation("Item availability is required")
	case name == "":
		return nil, domain.Validation("Item name is required")
	case description == "":
		return nil, domain.Validation("Item description is required")
	}
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	if req.RequestID != nil {
		if _, err := loadRequest(ctx, s.repo, *req.RequestID); err != nil {
			return nil, err
		}
	}

	item := &models.Item{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Available:   *req.Available,
		RequestID:   req.RequestID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("user_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies the non-empty fields of patch. Only the owner may update.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, domain.NotFound(domain.ErrNotOwner, "Item with id %d not found", itemID)
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		item.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
		item.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	err = s.repo.UpdateItem(ctx, item)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFound(nil, "Item with id %d not found", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("update item %d: %w", itemID, err)
	}
	return item, nil
}

// DeleteItem removes an owner's item. Items with booking history are kept.
func (s *ItemService) DeleteItem(ctx context.Context, ownerID, itemID int64) error {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != ownerID {
		return domain.NotFound(domain.ErrNotOwner, "Item with id %d not found", itemID)
	}

	err = s.repo.DeleteItem(ctx, itemID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return domain.NotFound(nil, "Item with id %d not found", itemID)
	case errors.Is(err, database.ErrInUse):
		return domain.Conflict("Item with id %d has bookings and cannot be deleted", itemID)
	case err != nil:
		return fmt.Errorf("delete item %d: %w", itemID, err)
	}

	s.logger.Info().Int64("item_id", itemID).Int64("user_id", ownerID).Msg("item deleted")
	return nil
}

func (s *ItemService) GetItem(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, item, viewerID)
}

func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemView, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, fmt.Errorf("list items of user %d: %w", ownerID, err)
	}

	views := make([]*models.ItemView, 0, len(items))
	for _, item := range items {
		view, err := s.view(ctx, item, ownerID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// SearchItems returns available items matching text; blank text matches nothing.
func (s *ItemService) SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}

	items, err := s.repo.SearchAvailableItems(ctx, text, page)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

// AddComment lets a user review an item they have finished renting.
func (s *ItemService) AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.Comment, error) {
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}
	if _, err := s.loadItem(ctx, itemID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.Validation("Comment text is required")
	}

	now := s.now()
	used, err := s.bookings.HasCompletedApprovedBooking(ctx, authorID, itemID, now)
	if err != nil {
		return nil, err
	}
	if !used {
		return nil, domain.NotAvailable(domain.ErrNotUsed,
			"User with id %d has no completed booking of item %d", authorID, itemID)
	}

	comment := &models.Comment{ItemID: itemID, AuthorID: authorID, Text: text, Created: now}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (s *ItemService) view(ctx context.Context, item *models.Item, viewerID int64) (*models.ItemView, error) {
	summary, err := s.bookings.ItemBookingSummary(ctx, item.ID, viewerID, s.now())
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("comments of item %d: %w", item.ID, err)
	}
	return &models.ItemView{Item: *item, ItemBookingSummary: summary, Comments: comments}, nil
}

func (s *ItemService) loadItem(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFound(nil, "Item with id %d not found", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", itemID, err)
	}
	return item, nil
}

func (s *ItemService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user %d: %w", userID, err)
	}
	if !exists {
		return domain.NotFound(nil, "User with id %d not found", userID)
	}
	return nil
}

func pageOf(from, size int) (models.PageRequest, error) {
	page := models.PageRequest{From: from, Size: size}
	if !page.Valid() {
		return page, domain.Validation("Invalid paging parameters: from=%d, size=%d", from, size)
	}
	return page, nil
}
