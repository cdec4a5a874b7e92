// internal/wire/wire.go
package wire

import (
	"net/http"

	"cinema-inventory/internal/adaptor"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/internal/realtime"
	"cinema-inventory/internal/usecase"
	"cinema-inventory/pkg/middleware"
	"cinema-inventory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring menginisialisasi semua dependencies
func Wiring(repo *repository.Repository, config *utils.Config, hub *realtime.Hub, deps usecase.Deps, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, hub, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.Realtime.AllowedOrigins))

	// Apply routes
	wireMovie(r, handler.Movie, handler.Showtime, repo, logger)
	wireShowtime(r, handler.Showtime, repo, logger)
	wireInventory(r, handler.Inventory, repo, logger)
	wireBooking(r, handler.Booking, repo, config.Payment.CallbackSecret, logger)
	wireUser(r, handler.User, repo, logger)
	wireRealtime(r, handler.Realtime)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
