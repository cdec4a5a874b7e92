package entity

import (
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending       BookingStatus = "pending"
	BookingStatusConfirmed     BookingStatus = "confirmed"
	BookingStatusPaymentFailed BookingStatus = "payment_failed"
	BookingStatusCancelled     BookingStatus = "cancelled"
)

type Booking struct {
	BaseNoDelete
	OrderID    string        `db:"order_id"`
	UserID     uuid.UUID     `db:"user_id"`
	ShowtimeID uuid.UUID     `db:"showtime_id"`
	ItemIDs    []uuid.UUID   `db:"-"` // booking_items
	TotalPrice float64       `db:"total_price"`
	Status     BookingStatus `db:"status"`
	PaymentRef *string       `db:"payment_ref"`
}
