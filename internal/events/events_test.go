package events

import (
	"errors"
	"testing"
	"time"

	"shareit/internal/models"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(func(event *Event) error {
		received = event
		callCount++
		return nil
	}, EventBookingCreated)

	payload := BookingEventPayload{BookingID: 7, Status: models.StatusWaiting}
	if err := bus.PublishJSON(EventBookingCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}

	var decoded BookingEventPayload
	if err := received.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.BookingID != 7 || decoded.Status != models.StatusWaiting {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestEventBusSubscribeMany(t *testing.T) {
	bus := NewEventBus()
	seen := map[string]int{}

	bus.Subscribe(func(e *Event) error { seen[e.Type]++; return nil }, BookingEventTypes...)

	for _, eventType := range BookingEventTypes {
		if err := bus.Publish(&Event{Type: eventType}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	_ = bus.Publish(&Event{Type: "unrelated"})

	if len(seen) != 3 {
		t.Fatalf("expected 3 event types, got %v", seen)
	}
	for eventType, n := range seen {
		if n != 1 {
			t.Errorf("%s delivered %d times", eventType, n)
		}
	}
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	errBoom := errors.New("boom")
	var secondCalled bool

	bus.Subscribe(func(_ *Event) error { return errBoom }, EventBookingApproved)
	bus.Subscribe(func(_ *Event) error { secondCalled = true; return nil }, EventBookingApproved)

	err := bus.PublishJSON(EventBookingApproved, BookingEventPayload{BookingID: 1})
	if !errors.Is(err, errBoom) {
		t.Errorf("expected joined handler error, got %v", err)
	}
	if !secondCalled {
		t.Error("a failing handler must not stop the others")
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	if err := bus.Publish(&Event{Type: "unknown"}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}

	var nilBus *EventBus
	if err := nilBus.PublishJSON(EventBookingCreated, nil); err != nil {
		t.Errorf("nil bus should be a no-op, got %v", err)
	}
}

func TestNewBookingEventPayload(t *testing.T) {
	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	b := &models.Booking{
		ID: 3, ItemID: 4, ItemName: "Drill", OwnerID: 1, BookerID: 2,
		Start: start, End: start.Add(time.Hour), Status: models.StatusApproved, Version: 2,
	}

	p := NewBookingEventPayload(b, 1)
	if p.BookingID != 3 || p.OwnerID != 1 || p.BookerID != 2 || p.ActorID != 1 || p.Version != 2 {
		t.Errorf("unexpected payload %+v", p)
	}
	if got := p.Key(EventBookingApproved); got != "booking_approved:3:2" {
		t.Errorf("unexpected key %s", got)
	}
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent("type", BookingEventPayload{BookingID: 123})
	if err != nil {
		t.Fatalf("NewJSONEvent failed: %v", err)
	}

	if event.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded BookingEventPayload
	if err := event.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded.BookingID != 123 {
		t.Errorf("expected BookingID 123, got %d", decoded.BookingID)
	}

	if _, err := NewJSONEvent("bad", make(chan int)); err == nil {
		t.Error("expected encode error for channel payload")
	}
}
