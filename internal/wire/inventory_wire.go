package wire

import (
	"cinema-inventory/internal/adaptor"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireInventory(
	r chi.Router,
	inventoryHandler *adaptor.InventoryHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/showtimes/{id}/inventory - Seat and parking map
	r.Get("/api/showtimes/{id}/inventory", inventoryHandler.GetInventory)

	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/showtimes/{id}/holds - Hold items, all or nothing
		r.Post("/api/showtimes/{id}/holds", inventoryHandler.PlaceHold)

		// POST /api/holds/release - Release own holds
		r.Post("/api/holds/release", inventoryHandler.ReleaseHold)
	})
}
