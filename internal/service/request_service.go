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

// RequestService keeps item requests and the items listed in answer to them.
type RequestService struct {
	repo   domain.Repository
	now    func() time.Time
	logger *zerolog.Logger
}

func NewRequestService(repo domain.Repository, now func() time.Time, logger *zerolog.Logger) *RequestService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RequestService{
		repo:   repo,
		now:    now,
		logger: logger,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, requesterID int64, req models.NewItemRequest) (*models.ItemRequest, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, domain.Validation("Request description is required")
	}

	request := &models.ItemRequest{
		RequesterID: requesterID,
		Description: description,
		Created:     s.now(),
		Items:       []*models.Item{},
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info().Int64("request_id", request.ID).Int64("user_id", requesterID).Msg("item request created")
	return request, nil
}

// ListOwnRequests returns the caller's requests with their answers, newest first.
func (s *RequestService) ListOwnRequests(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requests of user %d: %w", requesterID, err)
	}
	return s.withItems(ctx, requests)
}

// ListOtherRequests pages through requests made by everyone but the caller.
func (s *RequestService) ListOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsExcept(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("list requests for user %d: %w", userID, err)
	}
	return s.withItems(ctx, requests)
}

// GetRequest is visible to any existing user.
func (s *RequestService) GetRequest(ctx context.Context, viewerID, requestID int64) (*models.ItemRequest, error) {
	if err := s.requireUser(ctx, viewerID); err != nil {
		return nil, err
	}
	request, err := loadRequest(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	out, err := s.withItems(ctx, []*models.ItemRequest{request})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *RequestService) withItems(ctx context.Context, requests []*models.ItemRequest) ([]*models.ItemRequest, error) {
	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
	}
	byRequest, err := s.repo.GetItemsByRequests(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("items of requests: %w", err)
	}
	for _, r := range requests {
		r.Items = byRequest[r.ID]
		if r.Items == nil {
			r.Items = []*models.Item{}
		}
	}
	return requests, nil
}

func (s *RequestService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user %d: %w", userID, err)
	}
	if !exists {
		return domain.NotFound(nil, "User with id %d not found", userID)
	}
	return nil
}

func loadRequest(ctx context.Context, repo domain.RequestRepository, requestID int64) (*models.ItemRequest, error) {
	request, err := repo.GetRequestByID(ctx, requestID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFound(nil, "Request with id %d not found", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("load request %d: %w", requestID, err)
	}
	return request, nil
}
