package wire

import (
	"cinema-inventory/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireRealtime(r chi.Router, realtimeHandler *adaptor.RealtimeHandler) {
	// GET /ws/showtimes/{id} - Live inventory:updated events (public)
	r.Get("/ws/showtimes/{id}", realtimeHandler.Subscribe)
}
