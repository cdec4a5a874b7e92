package response

import (
	"time"

	"cinema-inventory/internal/data/entity"
)

type InventoryItemResponse struct {
	ID        string            `json:"id"`
	Kind      entity.ItemKind   `json:"kind"`
	Code      string            `json:"code"`
	Category  string            `json:"category"`
	Price     float64           `json:"price"`
	Status    entity.ItemStatus `json:"status"`
	HoldUntil *time.Time        `json:"hold_until,omitempty"`
}

type InventorySummary struct {
	Available int `json:"available"`
	Held      int `json:"held"`
	Sold      int `json:"sold"`
}

type InventoryResponse struct {
	ShowtimeID string                  `json:"showtime_id"`
	Phase      entity.ShowtimePhase    `json:"phase"`
	IsBookable bool                    `json:"is_bookable"`
	Message    string                  `json:"message,omitempty"`
	Seats      []InventoryItemResponse `json:"seats"`
	Parking    []InventoryItemResponse `json:"parking"`
	Summary    InventorySummary        `json:"summary"`
}

type HoldResponse struct {
	ShowtimeID string                  `json:"showtime_id"`
	HoldUntil  time.Time               `json:"hold_until"`
	Items      []InventoryItemResponse `json:"items"`
}

type ReleaseResponse struct {
	Released int `json:"released"`
}

// InventoryUpdate is the realtime payload pushed to a showtime room.
type InventoryUpdate struct {
	ShowtimeID string                  `json:"showtime_id"`
	Items      []InventoryItemResponse `json:"items"`
}

func InventoryItemToResponse(item *entity.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:        item.ID.String(),
		Kind:      item.Kind,
		Code:      item.Code,
		Category:  item.Category,
		Price:     item.Price,
		Status:    item.Status,
		HoldUntil: item.HoldUntil,
	}
}

func InventoryItemsToResponse(items []*entity.InventoryItem) []InventoryItemResponse {
	out := make([]InventoryItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, InventoryItemToResponse(item))
	}
	return out
}

// InventoryToResponse splits items by kind and tallies them per status.
func InventoryToResponse(showtime *entity.Showtime, items []*entity.InventoryItem, now time.Time) InventoryResponse {
	resp := InventoryResponse{
		ShowtimeID: showtime.ID.String(),
		Phase:      showtime.Phase(now),
		IsBookable: showtime.IsBookable(now),
		Message:    showtime.ClosedReason(now),
		Seats:      []InventoryItemResponse{},
		Parking:    []InventoryItemResponse{},
	}

	for _, item := range items {
		switch item.Status {
		case entity.ItemStatusAvailable:
			resp.Summary.Available++
		case entity.ItemStatusHeld:
			resp.Summary.Held++
		case entity.ItemStatusSold:
			resp.Summary.Sold++
		}

		if item.Kind == entity.ItemKindParking {
			resp.Parking = append(resp.Parking, InventoryItemToResponse(item))
		} else {
			resp.Seats = append(resp.Seats, InventoryItemToResponse(item))
		}
	}

	return resp
}
