package response

import (
	"time"

	"cinema-inventory/internal/data/entity"
)

type BookingResponse struct {
	ID         string               `json:"id"`
	OrderID    string               `json:"order_id"`
	UserID     string               `json:"user_id"`
	ShowtimeID string               `json:"showtime_id"`
	ItemIDs    []string             `json:"item_ids"`
	TotalItems int                  `json:"total_items"`
	TotalPrice float64              `json:"total_price"`
	Status     entity.BookingStatus `json:"status"`
	PaymentRef *string              `json:"payment_ref,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	itemIDs := make([]string, 0, len(booking.ItemIDs))
	for _, id := range booking.ItemIDs {
		itemIDs = append(itemIDs, id.String())
	}

	return BookingResponse{
		ID:         booking.ID.String(),
		OrderID:    booking.OrderID,
		UserID:     booking.UserID.String(),
		ShowtimeID: booking.ShowtimeID.String(),
		ItemIDs:    itemIDs,
		TotalItems: len(itemIDs),
		TotalPrice: booking.TotalPrice,
		Status:     booking.Status,
		PaymentRef: booking.PaymentRef,
		CreatedAt:  booking.CreatedAt,
	}
}
