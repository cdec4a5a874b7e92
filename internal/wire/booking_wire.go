package wire

import (
	"cinema-inventory/internal/adaptor"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	callbackSecret string,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/bookings - Create booking over held items
		r.Post("/api/bookings", bookingHandler.CreateBooking)

		// GET /api/bookings/{id} - Own booking
		r.Get("/api/bookings/{id}", bookingHandler.GetBooking)

		// GET /api/user/bookings - View booking history (user's own bookings)
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})

	// ==================== PAYMENT PROVIDER CALLBACKS ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.PaymentCallback(callbackSecret, log))

		// POST /api/bookings/{id}/confirm - Payment succeeded
		r.Post("/api/bookings/{id}/confirm", bookingHandler.ConfirmPayment)

		// POST /api/bookings/{id}/fail - Payment failed, holds released
		r.Post("/api/bookings/{id}/fail", bookingHandler.FailPayment)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		// PUT /api/admin/bookings/{id}/cancel - Cancel and restock
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)
	})
}
