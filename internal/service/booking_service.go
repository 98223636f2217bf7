package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo        domain.Repository
	eventBus    domain.EventPublisher
	window      WindowValidator
	maxPageSize int
	now         func() time.Time
	logger      *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger, opts ...Option) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &BookingService{
		repo:        repo,
		eventBus:    eventBus,
		window:      NewWindowValidator(config.DefaultCreateToleranceMinutes * time.Minute),
		maxPageSize: config.DefaultMaxPageSize,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) CreateBooking(ctx context.Context, bookerID int64, req models.NewBooking) (booking *models.Booking, err error) {
	defer func() { metrics.IncBooking("create", outcome(err)) }()

	if err := s.requireUser(ctx, bookerID); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, req.ItemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFound(nil, "Item with id %d not found", req.ItemID)
	}
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", req.ItemID, err)
	}
	if item.OwnerID == bookerID {
		return nil, domain.NotFound(domain.ErrOwnItem, "Item with id %d not found", req.ItemID)
	}
	if !item.Available {
		return nil, domain.NotAvailable(nil, "Item with id %d is not available", req.ItemID)
	}
	if err := s.window.ValidateNew(req.Start, req.End, s.now()); err != nil {
		return nil, err
	}

	booking = &models.Booking{
		ItemID:   req.ItemID,
		BookerID: bookerID,
		Start:    req.Start,
		End:      req.End,
		Status:   models.StatusWaiting,
	}
	err = s.repo.CreateBooking(ctx, booking)
	switch {
	case errors.Is(err, database.ErrNotAvailable):
		return nil, domain.NotAvailable(nil, "Item with id %d is not available", req.ItemID)
	case errors.Is(err, database.ErrNotFound):
		return nil, domain.NotFound(nil, "Item with id %d not found", req.ItemID)
	case err != nil:
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info().Int64("booking_id", booking.ID).Int64("item_id", booking.ItemID).
		Int64("user_id", bookerID).Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, bookerID)
	return booking, nil
}

// ApproveBooking records the owner's decision. A booking leaves WAITING at most once.
func (s *BookingService) ApproveBooking(ctx context.Context, ownerID, bookingID int64, approved bool) (booking *models.Booking, err error) {
	operation := "approve"
	if !approved {
		operation = "reject"
	}
	defer func() { metrics.IncBooking(operation, outcome(err)) }()

	current, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != ownerID {
		return nil, domain.NotFound(domain.ErrNotOwner, "Booking with id %d not found", bookingID)
	}
	if err := decidedError(current); err != nil {
		return nil, err
	}

	status := models.StatusRejected
	if approved {
		status = models.StatusApproved
	}

	err = s.repo.DecideBooking(ctx, current.ID, current.Version, status)
	if errors.Is(err, database.ErrConcurrentModification) {
		s.logger.Debug().Int64("booking_id", bookingID).Msg("booking decided concurrently")
		latest, loadErr := s.loadBooking(ctx, bookingID)
		if loadErr == nil {
			if decided := decidedError(latest); decided != nil {
				return nil, decided
			}
		}
		return nil, domain.NotAvailable(domain.ErrAlreadyDecided, "Booking with id %d was already decided", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("decide booking %d: %w", bookingID, err)
	}

	booking, err = s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", bookingID).Int64("user_id", ownerID).
		Str("status", booking.Status.String()).Msg("booking decided")
	eventType := events.EventBookingRejected
	if approved {
		eventType = events.EventBookingApproved
	}
	s.publishEvent(eventType, booking, ownerID)
	return booking, nil
}

// GetBooking is visible to the booker and to the item owner only.
func (s *BookingService) GetBooking(ctx context.Context, viewerID, bookingID int64) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(viewerID) {
		return nil, domain.NotFound(domain.ErrNotParticipant, "Booking with id %d not found", bookingID)
	}
	return booking, nil
}

func (s *BookingService) HasCompletedApprovedBooking(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	ok, err := s.repo.HasCompletedApprovedBooking(ctx, userID, itemID, now)
	if err != nil {
		return false, fmt.Errorf("check completed booking: %w", err)
	}
	return ok, nil
}

func (s *BookingService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user %d: %w", userID, err)
	}
	if !exists {
		return domain.NotFound(nil, "User with id %d not found", userID)
	}
	return nil
}

func (s *BookingService) loadBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFound(nil, "Booking with id %d not found", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	return booking, nil
}

// decidedError reports why a booking can no longer be decided, or nil while it is WAITING.
func decidedError(b *models.Booking) error {
	switch b.Status {
	case models.StatusApproved:
		return domain.NotAvailable(domain.ErrAlreadyApproved, "Booking with id %d is already approved", b.ID)
	case models.StatusRejected:
		return domain.NotAvailable(domain.ErrAlreadyDecided, "Booking with id %d is already rejected", b.ID)
	default:
		return nil
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.NewBookingEventPayload(booking, actorID)
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func outcome(err error) string {
	switch domain.KindOf(err) {
	case nil:
		if err != nil {
			return "error"
		}
		return "ok"
	case domain.ErrNotFound:
		return "not_found"
	case domain.ErrNotAvailable:
		return "not_available"
	case domain.ErrValidation:
		return "validation"
	case domain.ErrUnsupportedState:
		return "unsupported_state"
	default:
		return "conflict"
	}
}
