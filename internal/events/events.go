package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shareit/internal/models"
)

const (
	EventBookingCreated  = "booking_created"
	EventBookingApproved = "booking_approved"
	EventBookingRejected = "booking_rejected"
)

// BookingEventTypes lists every event the lifecycle engine emits.
var BookingEventTypes = []string{EventBookingCreated, EventBookingApproved, EventBookingRejected}

// BookingEventPayload is the booking snapshot shipped to consumers.
type BookingEventPayload struct {
	BookingID int64                `json:"booking_id"`
	ItemID    int64                `json:"item_id"`
	ItemName  string               `json:"item_name"`
	OwnerID   int64                `json:"owner_id"`
	BookerID  int64                `json:"booker_id"`
	Status    models.BookingStatus `json:"status"`
	Start     time.Time            `json:"start"`
	End       time.Time            `json:"end"`
	Version   int64                `json:"version"`
	ActorID   int64                `json:"actor_id"`
}

// NewBookingEventPayload snapshots b as changed by actorID.
func NewBookingEventPayload(b *models.Booking, actorID int64) BookingEventPayload {
	return BookingEventPayload{
		BookingID: b.ID,
		ItemID:    b.ItemID,
		ItemName:  b.ItemName,
		OwnerID:   b.OwnerID,
		BookerID:  b.BookerID,
		Status:    b.Status,
		Start:     b.Start,
		End:       b.End,
		Version:   b.Version,
		ActorID:   actorID,
	}
}

// Key identifies one state of one booking; redelivery of the same state yields the same key.
func (p BookingEventPayload) Key(eventType string) string {
	return fmt.Sprintf("%s:%d:%d", eventType, p.BookingID, p.Version)
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the event payload into v.
func (e *Event) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for the given event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	}
}

// Publish runs every subscriber of the event type synchronously and joins their errors.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
