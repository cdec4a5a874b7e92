package usecase

import (
	"context"
	"fmt"
	"time"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/internal/dto/request"
	"cinema-inventory/internal/dto/response"
	"cinema-inventory/internal/events"
	"cinema-inventory/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Customer endpoints (butuh auth)
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Payment provider callbacks, never reachable with a customer session
	ConfirmPayment(ctx context.Context, bookingID string, req *request.ConfirmPaymentRequest) (*response.BookingResponse, error)
	FailPayment(ctx context.Context, bookingID string) (*response.BookingResponse, error)

	// Admin
	CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
}

type bookingService struct {
	repo      *repository.Repository
	notifier  *InventoryNotifier
	publisher events.Publisher
	now       func() time.Time
	log       *zap.Logger
}

func NewBookingService(repo *repository.Repository, notifier *InventoryNotifier, publisher events.Publisher, log *zap.Logger) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
		log:       log.With(zap.String("service", "booking")),
	}
}

// CreateBooking opens a pending booking over items the user currently holds.
func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, validationError("%s", utils.FormatValidationErrors(errs))
	}

	showtimeID, err := parseID("showtime", req.ShowtimeID)
	if err != nil {
		return nil, err
	}
	itemIDs, err := parseIDs(req.ItemIDs)
	if err != nil {
		return nil, err
	}

	showtime, err := s.repo.Showtime.FindByID(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("get showtime: %w", err)
	}
	if showtime == nil {
		return nil, ErrShowtimeNotFound
	}

	items, err := s.repo.Inventory.FindByIDs(ctx, itemIDs)
	if err != nil {
		s.log.Error("Failed to load booking items", zap.Error(err))
		return nil, fmt.Errorf("load items: %w", err)
	}
	byID := make(map[uuid.UUID]*entity.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	now := s.now()
	var total float64
	for _, id := range itemIDs {
		item, ok := byID[id]
		if !ok || item.ShowtimeID != showtimeID {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		if !item.IsHeldBy(userID, now) {
			return nil, &ItemUnavailableError{Code: item.Code}
		}
		total += item.Price
	}

	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderID:    utils.GenerateOrderID(now),
		UserID:     userID,
		ShowtimeID: showtimeID,
		ItemIDs:    itemIDs,
		TotalPrice: total,
		Status:     entity.BookingStatusPending,
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		return tx.Booking.Create(ctx, booking)
	})
	if err != nil {
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("showtime_id", showtimeID.String()),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("order_id", booking.OrderID),
		zap.Int("items", len(itemIDs)),
		zap.Float64("total_price", total),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// ConfirmPayment is the only path that turns held items into sold ones. The
// items must still be held by the booking's owner; a hold that lapsed before
// the callback fails the whole confirmation.
func (s *bookingService) ConfirmPayment(ctx context.Context, bookingID string, req *request.ConfirmPaymentRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Confirm payment validation failed", zap.Any("errors", errs))
		return nil, validationError("%s", utils.FormatValidationErrors(errs))
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case entity.BookingStatusConfirmed:
		// callbacks may be retried
		resp := response.BookingToResponse(booking)
		return &resp, nil
	case entity.BookingStatusPending:
	default:
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
	}

	now := s.now()
	var sold []*entity.InventoryItem
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		items, err := tx.Inventory.MarkSold(ctx, booking.ItemIDs, booking.UserID, now)
		if err != nil {
			return err
		}
		if len(items) < len(booking.ItemIDs) {
			return firstUnclaimed(ctx, tx, booking.ShowtimeID, booking.ItemIDs, items)
		}

		ok, err := tx.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusPending, entity.BookingStatusConfirmed, &req.PaymentRef)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking changed concurrently", ErrInvalidState)
		}
		sold = items
		return nil
	})
	if err != nil {
		s.log.Warn("Payment confirmation rejected",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, err
	}

	booking.Status = entity.BookingStatusConfirmed
	booking.PaymentRef = &req.PaymentRef
	booking.UpdatedAt = now

	s.notifier.ItemsChanged(ctx, sold)
	publishBooking(ctx, s.publisher, s.log, bookingEvent(events.BookingConfirmed, booking, sold, now))

	s.log.Info("Booking confirmed",
		zap.String("booking_id", bookingID),
		zap.String("order_id", booking.OrderID),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// FailPayment releases the owner's holds on the booking's items.
func (s *bookingService) FailPayment(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
	}

	var released []*entity.InventoryItem
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		items, err := tx.Inventory.ReleaseHeld(ctx, booking.ItemIDs, booking.UserID)
		if err != nil {
			return err
		}
		ok, err := tx.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusPending, entity.BookingStatusPaymentFailed, nil)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking changed concurrently", ErrInvalidState)
		}
		released = items
		return nil
	})
	if err != nil {
		s.log.Warn("Payment failure not recorded", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, err
	}

	now := s.now()
	booking.Status = entity.BookingStatusPaymentFailed
	booking.UpdatedAt = now

	s.notifier.ItemsChanged(ctx, released)
	publishBooking(ctx, s.publisher, s.log, bookingEvent(events.BookingPaymentFailed, booking, released, now))

	s.log.Info("Booking payment failed",
		zap.String("booking_id", bookingID),
		zap.Int("released", len(released)),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// CancelBooking returns a booking's items to stock. Confirmed bookings give
// back SOLD items, pending ones give back the owner's holds.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	from := booking.Status
	if from != entity.BookingStatusConfirmed && from != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
	}

	var restocked []*entity.InventoryItem
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var items []*entity.InventoryItem
		var err error
		if from == entity.BookingStatusConfirmed {
			items, err = tx.Inventory.Restock(ctx, booking.ItemIDs)
		} else {
			items, err = tx.Inventory.ReleaseHeld(ctx, booking.ItemIDs, booking.UserID)
		}
		if err != nil {
			return err
		}

		ok, err := tx.Booking.UpdateStatus(ctx, booking.ID, from, entity.BookingStatusCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking changed concurrently", ErrInvalidState)
		}
		restocked = items
		return nil
	})
	if err != nil {
		s.log.Warn("Cancel booking failed", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, err
	}

	now := s.now()
	booking.Status = entity.BookingStatusCancelled
	booking.UpdatedAt = now

	s.notifier.ItemsChanged(ctx, restocked)
	publishBooking(ctx, s.publisher, s.log, bookingEvent(events.BookingCancelled, booking, restocked, now))

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("previous_status", string(from)),
		zap.Int("restocked", len(restocked)),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.loadOwned(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user bookings", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("get bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	out := make([]response.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, response.BookingToResponse(booking))
	}

	return response.NewPaginatedResponse(out, req.Page, req.Limit(), total), nil
}

func (s *bookingService) load(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) loadOwned(ctx context.Context, userID uuid.UUID, bookingID string) (*entity.Booking, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		s.log.Warn("Booking access by non-owner",
			zap.String("booking_id", bookingID),
			zap.String("user_id", userID.String()),
		)
		return nil, ErrForbidden
	}
	return booking, nil
}

func bookingEvent(kind events.EventType, booking *entity.Booking, items []*entity.InventoryItem, now time.Time) events.BookingEvent {
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.Code)
	}
	return events.BookingEvent{
		ID:         uuid.New(),
		Type:       kind,
		BookingID:  booking.ID,
		OrderID:    booking.OrderID,
		UserID:     booking.UserID,
		ShowtimeID: booking.ShowtimeID,
		ItemCodes:  codes,
		TotalPrice: booking.TotalPrice,
		OccurredAt: now,
	}
}
