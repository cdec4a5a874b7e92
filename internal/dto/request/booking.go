package request

type CreateBookingRequest struct {
	ShowtimeID string   `json:"showtime_id" validate:"required,uuid"`
	ItemIDs    []string `json:"item_ids" validate:"required,min=1,max=50,dive,uuid"`
}

// ConfirmPaymentRequest is the payment result callback for a pending booking.
type ConfirmPaymentRequest struct {
	PaymentRef string `json:"payment_ref" validate:"required,min=1,max=100"`
}
