package wire

import (
	"cinema-inventory/internal/adaptor"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireMovie(
	r chi.Router,
	movieHandler *adaptor.MovieHandler,
	showtimeHandler *adaptor.ShowtimeHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/movies - List movies (public, anyone can view)
	r.Get("/api/movies", movieHandler.GetMovies)

	// GET /api/movies/{id} - Movie details with active showtimes (public)
	r.Get("/api/movies/{id}", movieHandler.GetMovieByID)

	// GET /api/movies/{id}/showtimes - Active showtimes only, archived ones hidden
	r.Get("/api/movies/{id}/showtimes", showtimeHandler.ListByMovie)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/movies", func(r chi.Router) {
		// Must be authenticated admin
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/", movieHandler.CreateMovie) // POST /api/admin/movies
	})
}
