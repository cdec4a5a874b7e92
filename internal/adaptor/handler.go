package adaptor

import (
	"cinema-inventory/internal/realtime"
	"cinema-inventory/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Inventory *InventoryHandler
	Showtime  *ShowtimeHandler
	Booking   *BookingHandler
	Movie     *MovieHandler
	User      *UserHandler
	Realtime  *RealtimeHandler
}

func NewHandler(service *usecase.Service, hub *realtime.Hub, log *zap.Logger) *Handler {
	return &Handler{
		Inventory: NewInventoryHandler(service.Hold, log),
		Showtime:  NewShowtimeHandler(service.Showtime, log),
		Booking:   NewBookingHandler(service.Booking, log),
		Movie:     NewMovieHandler(service.Movie, log),
		User:      NewUserHandler(service.User, log),
		Realtime:  NewRealtimeHandler(hub, service.Showtime, log),
	}
}
