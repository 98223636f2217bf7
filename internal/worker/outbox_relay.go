package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const enqueueTimeout = 5 * time.Second

// DeadLetterQueue receives outbox rows that exhausted their retries.
type DeadLetterQueue interface {
	Push(ctx context.Context, payload []byte) error
}

// OutboxRelay moves booking events from the outbox table to Kafka.
type OutboxRelay struct {
	store        domain.OutboxRepository
	writer       MessageWriter
	deadLetters  DeadLetterQueue
	retryPolicy  RetryPolicy
	notify       chan struct{}
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
	logger       *zerolog.Logger
}

// NewOutboxRelay builds a relay with sane defaults. deadLetters may be nil.
func NewOutboxRelay(store domain.OutboxRepository, writer MessageWriter, deadLetters DeadLetterQueue, retry RetryPolicy, pollInterval time.Duration, batchSize int, logger *zerolog.Logger) *OutboxRelay {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &OutboxRelay{
		store:        store,
		writer:       writer,
		deadLetters:  deadLetters,
		retryPolicy:  retry,
		notify:       make(chan struct{}, 1),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		now:          time.Now,
		logger:       logger,
	}
}

// Enqueue is an event bus handler that records the event in the outbox.
// Redelivery of an already recorded event is ignored.
func (r *OutboxRelay) Enqueue(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	row := &models.OutboxEvent{
		EventKey:  payload.Key(event.Type),
		EventType: event.Type,
		BookingID: payload.BookingID,
		Payload:   string(event.Payload),
	}
	err := r.store.CreateOutboxEvent(ctx, row)
	if errors.Is(err, database.ErrDuplicate) {
		r.logger.Debug().Str("event_key", row.EventKey).Msg("outbox event already recorded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("persist outbox event: %w", err)
	}

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

// Start polls the outbox until ctx is done; Enqueue wakes it early.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info().Dur("poll_interval", r.pollInterval).Msg("outbox relay started")
	defer r.logger.Info().Msg("outbox relay stopped")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error().Err(err).Msg("outbox batch failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-r.notify:
		}
	}
}

// ProcessBatch delivers up to batchSize due events and returns how many were sent.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	pending, err := r.store.GetPendingOutboxEvents(ctx, r.now(), r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}

	sent := 0
	for i := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if r.deliver(ctx, &pending[i]) {
			sent++
		}
	}
	return sent, nil
}

func (r *OutboxRelay) deliver(ctx context.Context, event *models.OutboxEvent) bool {
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.BookingID, 10)),
		Value: []byte(event.Payload),
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_key", Value: []byte(event.EventKey)},
		},
	}

	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		r.retryOrFail(ctx, event, err)
		return false
	}

	if err := r.store.UpdateOutboxEventStatus(ctx, event.ID, models.OutboxCompleted, "", nil); err != nil {
		r.logger.Error().Err(err).Int64("outbox_id", event.ID).Msg("mark outbox event completed")
	}
	metrics.IncOutbox("sent")
	return true
}

func (r *OutboxRelay) retryOrFail(ctx context.Context, event *models.OutboxEvent, cause error) {
	attempt := event.RetryCount + 1
	if r.retryPolicy.Exhausted(attempt) {
		if err := r.store.UpdateOutboxEventStatus(ctx, event.ID, models.OutboxFailed, cause.Error(), nil); err != nil {
			r.logger.Error().Err(err).Int64("outbox_id", event.ID).Msg("mark outbox event failed")
		}
		event.Status = models.OutboxFailed
		event.LastError = cause.Error()
		r.pushDeadLetter(ctx, event)
		metrics.IncOutbox("failed")
		return
	}

	next := r.now().Add(r.retryPolicy.NextDelay(attempt))
	if err := r.store.UpdateOutboxEventStatus(ctx, event.ID, models.OutboxRetry, cause.Error(), &next); err != nil {
		r.logger.Error().Err(err).Int64("outbox_id", event.ID).Msg("mark outbox event retry")
	}
	r.logger.Warn().Err(cause).Int64("outbox_id", event.ID).Int("attempt", attempt).
		Time("next_retry_at", next).Msg("outbox delivery failed")
	metrics.IncOutbox("retry")
}

func (r *OutboxRelay) pushDeadLetter(ctx context.Context, event *models.OutboxEvent) {
	if r.deadLetters == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Int64("outbox_id", event.ID).Msg("encode dead letter")
		return
	}
	if err := r.deadLetters.Push(ctx, data); err != nil {
		r.logger.Error().Err(err).Int64("outbox_id", event.ID).Msg("dead letter push")
	}
}
