package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	BookingConfirmed     EventType = "booking.confirmed"
	BookingCancelled     EventType = "booking.cancelled"
	BookingPaymentFailed EventType = "booking.payment_failed"
)

// BookingEvent is consumed by the mailer and reporting services.
type BookingEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	OrderID    string    `json:"order_id"`
	UserID     uuid.UUID `json:"user_id"`
	ShowtimeID uuid.UUID `json:"showtime_id"`
	ItemCodes  []string  `json:"item_codes"`
	TotalPrice float64   `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e BookingEvent) Key() string {
	return e.BookingID.String()
}

func (e BookingEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// NopPublisher drops every event; used when EVENT_BROKER=none.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NopPublisher) Close() error                                { return nil }
