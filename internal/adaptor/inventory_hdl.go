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

type InventoryHandler struct {
	service usecase.HoldService
	log     *zap.Logger
}

func NewInventoryHandler(service usecase.HoldService, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		log:     log.With(zap.String("handler", "inventory")),
	}
}

// GetInventory handles GET /api/showtimes/{id}/inventory (public)
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")

	inventory, err := h.service.GetInventory(r.Context(), showtimeID)
	if err != nil {
		handleServiceError(w, h.log, err, "get inventory")
		return
	}

	utils.ResponseSuccess(w, "success", inventory)
}

// PlaceHold handles POST /api/showtimes/{id}/holds (protected)
func (h *InventoryHandler) PlaceHold(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.PlaceHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	hold, err := h.service.PlaceHold(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "place hold")
		return
	}

	utils.ResponseSuccess(w, "Items held", hold)
}

// ReleaseHold handles POST /api/holds/release (protected)
func (h *InventoryHandler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ReleaseHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	released, err := h.service.ReleaseHold(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "release hold")
		return
	}

	utils.ResponseSuccess(w, "success", released)
}
