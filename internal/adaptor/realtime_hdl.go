package adaptor

import (
	"net/http"

	"cinema-inventory/internal/realtime"
	"cinema-inventory/internal/usecase"
	"cinema-inventory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RealtimeHandler struct {
	hub      *realtime.Hub
	showtime usecase.ShowtimeService
	log      *zap.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, showtime usecase.ShowtimeService, log *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:      hub,
		showtime: showtime,
		log:      log.With(zap.String("handler", "realtime")),
	}
}

// Subscribe handles GET /ws/showtimes/{id}; the connection then receives
// every inventory:updated event of that showtime.
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")

	id, err := uuid.Parse(showtimeID)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid showtime ID", nil)
		return
	}

	if _, err := h.showtime.GetShowtime(r.Context(), showtimeID); err != nil {
		handleServiceError(w, h.log, err, "subscribe showtime")
		return
	}

	if err := h.hub.ServeWS(w, r, realtime.ShowtimeRoom(id)); err != nil {
		// the upgrader has already written the HTTP error
		h.log.Warn("Websocket upgrade failed", zap.Error(err), zap.String("showtime_id", showtimeID))
	}
}
