package events

import (
	"encoding/json"
	"sync"
	"time"

	"stayhub/internal/models"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingRejected  = "booking_rejected"
	EventBookingExpired   = "booking_expired"
)

// BookingEventTypes lists every booking lifecycle event.
var BookingEventTypes = []string{
	EventBookingCreated,
	EventBookingConfirmed,
	EventBookingCancelled,
	EventBookingRejected,
	EventBookingExpired,
}

// EventForStatus maps the status a booking moved into to its event type.
func EventForStatus(status models.BookingStatus) string {
	switch status {
	case models.StatusConfirmed:
		return EventBookingConfirmed
	case models.StatusCancelled:
		return EventBookingCancelled
	case models.StatusRejected:
		return EventBookingRejected
	case models.StatusExpired:
		return EventBookingExpired
	default:
		return EventBookingCreated
	}
}

// BookingEventPayload is the booking snapshot handed to subscribers.
type BookingEventPayload struct {
	BookingID     int64                `json:"booking_id"`
	BookingNumber string               `json:"booking_number"`
	RoomID        int64                `json:"room_id"`
	GuestID       int64                `json:"guest_id"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	CheckIn       string               `json:"check_in"`
	CheckOut      string               `json:"check_out"`
	TotalAmount   int64                `json:"total_amount"`
	Currency      models.Currency      `json:"currency"`
	ChangedByID   int64                `json:"changed_by_id,omitempty"`
}

// NewBookingPayload snapshots b. changedBy is zero for system transitions.
func NewBookingPayload(b *models.Booking, changedBy int64) BookingEventPayload {
	return BookingEventPayload{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		RoomID:        b.RoomID,
		GuestID:       b.GuestID,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		CheckIn:       models.FormatDate(b.CheckIn),
		CheckOut:      models.FormatDate(b.CheckOut),
		TotalAmount:   b.TotalAmount,
		Currency:      b.Currency,
		ChangedByID:   changedBy,
	}
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type and returns the first
// handler error. Every handler runs even if an earlier one failed.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var first error
	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && first == nil {
			first = err
		}
	}
	return first
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
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// LogHandler writes every event it receives to logger.
func LogHandler(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		var p BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			logger.Warn().Err(err).Str("event", event.Type).Msg("undecodable event payload")
			return nil
		}
		logger.Info().
			Str("event", event.Type).
			Int64("booking_id", p.BookingID).
			Str("booking_number", p.BookingNumber).
			Int64("room_id", p.RoomID).
			Str("status", string(p.Status)).
			Msg("booking event")
		return nil
	}
}
