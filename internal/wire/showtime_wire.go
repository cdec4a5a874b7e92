package wire

import (
	"cinema-inventory/internal/adaptor"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireShowtime(
	r chi.Router,
	showtimeHandler *adaptor.ShowtimeHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/showtimes?date=YYYY-MM-DD - Schedule of one day
	r.Get("/api/showtimes", showtimeHandler.ListShowtimes)

	// GET /api/showtimes/{id} - Showtime with its current phase
	r.Get("/api/showtimes/{id}", showtimeHandler.GetShowtime)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/showtimes", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/", showtimeHandler.CreateShowtime)             // POST /api/admin/showtimes
		r.Post("/archive", showtimeHandler.ArchivePast)         // POST /api/admin/showtimes/archive
		r.Post("/generate", showtimeHandler.Generate)           // POST /api/admin/showtimes/generate?day=
		r.Put("/{id}", showtimeHandler.UpdateShowtime)          // PUT /api/admin/showtimes/{id}
		r.Delete("/{id}", showtimeHandler.DeleteShowtime)       // DELETE /api/admin/showtimes/{id}
		r.Post("/{id}/reopen", showtimeHandler.ReopenShowtime) // POST /api/admin/showtimes/{id}/reopen
	})
}
