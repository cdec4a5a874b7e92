package adaptor

import (
	"encoding/json"
	"net/http"

	"cinema-inventory/internal/dto/request"
	"cinema-inventory/internal/usecase"
	"cinema-inventory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ShowtimeHandler struct {
	service usecase.ShowtimeService
	log     *zap.Logger
}

func NewShowtimeHandler(service usecase.ShowtimeService, log *zap.Logger) *ShowtimeHandler {
	return &ShowtimeHandler{
		service: service,
		log:     log.With(zap.String("handler", "showtime")),
	}
}

// GetShowtime handles GET /api/showtimes/{id}
func (h *ShowtimeHandler) GetShowtime(w http.ResponseWriter, r *http.Request) {
	showtime, err := h.service.GetShowtime(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get showtime")
		return
	}

	utils.ResponseSuccess(w, "success", showtime)
}

// ListShowtimes handles GET /api/showtimes?date=YYYY-MM-DD
func (h *ShowtimeHandler) ListShowtimes(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		utils.ResponseBadRequest(w, "date query parameter is required", nil)
		return
	}

	showtimes, err := h.service.ListByDate(r.Context(), date)
	if err != nil {
		handleServiceError(w, h.log, err, "list showtimes")
		return
	}

	utils.ResponseSuccess(w, "success", showtimes)
}

// ListByMovie handles GET /api/movies/{id}/showtimes
func (h *ShowtimeHandler) ListByMovie(w http.ResponseWriter, r *http.Request) {
	showtimes, err := h.service.ListByMovie(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "list movie showtimes")
		return
	}

	utils.ResponseSuccess(w, "success", showtimes)
}

// ==================== ADMIN METHODS ====================

// CreateShowtime handles POST /api/admin/showtimes
func (h *ShowtimeHandler) CreateShowtime(w http.ResponseWriter, r *http.Request) {
	var req request.ShowtimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	showtime, err := h.service.CreateShowtime(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create showtime")
		return
	}

	utils.ResponseCreated(w, "Showtime created", showtime)
}

// UpdateShowtime handles PUT /api/admin/showtimes/{id}
func (h *ShowtimeHandler) UpdateShowtime(w http.ResponseWriter, r *http.Request) {
	var req request.ShowtimeUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	showtime, err := h.service.UpdateShowtime(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update showtime")
		return
	}

	utils.ResponseSuccess(w, "Showtime updated", showtime)
}

// DeleteShowtime handles DELETE /api/admin/showtimes/{id}
func (h *ShowtimeHandler) DeleteShowtime(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteShowtime(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete showtime")
		return
	}

	utils.ResponseSuccess(w, "Showtime deleted", nil)
}

// ReopenShowtime handles POST /api/admin/showtimes/{id}/reopen
func (h *ShowtimeHandler) ReopenShowtime(w http.ResponseWriter, r *http.Request) {
	showtime, err := h.service.ReopenShowtime(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "reopen showtime")
		return
	}

	utils.ResponseSuccess(w, "Showtime reopened", showtime)
}

// ArchivePast handles POST /api/admin/showtimes/archive
func (h *ShowtimeHandler) ArchivePast(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ArchivePastShowtimes(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "archive showtimes")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// Generate handles POST /api/admin/showtimes/generate?day=today|tomorrow
func (h *ShowtimeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req := request.GenerateShowtimesRequest{Day: r.URL.Query().Get("day")}
	if req.Day == "" {
		req.Day = "tomorrow"
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.GenerateForDay(r.Context(), req.Day)
	if err != nil {
		handleServiceError(w, h.log, err, "generate showtimes")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}
