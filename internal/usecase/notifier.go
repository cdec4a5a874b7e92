package usecase

import (
	"context"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/internal/dto/response"
	"cinema-inventory/internal/events"
	"cinema-inventory/internal/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryNotifier pushes committed inventory changes to showtime rooms.
// Delivery is best effort and never fails the caller.
type InventoryNotifier struct {
	broadcaster realtime.Broadcaster
	log         *zap.Logger
}

func NewInventoryNotifier(broadcaster realtime.Broadcaster, log *zap.Logger) *InventoryNotifier {
	return &InventoryNotifier{
		broadcaster: broadcaster,
		log:         log.With(zap.String("service", "notifier")),
	}
}

// ItemsChanged emits one inventory:updated event per affected showtime.
func (n *InventoryNotifier) ItemsChanged(ctx context.Context, items []*entity.InventoryItem) {
	if n == nil || n.broadcaster == nil || len(items) == 0 {
		return
	}

	var order []uuid.UUID
	grouped := make(map[uuid.UUID][]*entity.InventoryItem)
	for _, item := range items {
		if _, ok := grouped[item.ShowtimeID]; !ok {
			order = append(order, item.ShowtimeID)
		}
		grouped[item.ShowtimeID] = append(grouped[item.ShowtimeID], item)
	}

	for _, showtimeID := range order {
		payload := response.InventoryUpdate{
			ShowtimeID: showtimeID.String(),
			Items:      response.InventoryItemsToResponse(grouped[showtimeID]),
		}
		room := realtime.ShowtimeRoom(showtimeID)
		if err := n.broadcaster.Broadcast(ctx, room, realtime.EventInventoryUpdated, payload); err != nil {
			n.log.Warn("Failed to broadcast inventory update",
				zap.Error(err),
				zap.String("room", room),
				zap.Int("items", len(payload.Items)),
			)
		}
	}
}

// publishBooking sends a booking event without failing the caller.
func publishBooking(ctx context.Context, publisher events.Publisher, log *zap.Logger, event events.BookingEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID.String()),
		)
	}
}
