package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	CountBlockingByShowtimeID(ctx context.Context, showtimeID uuid.UUID, now time.Time) (int64, error)

	// UpdateStatus moves a booking from one status to another and reports
	// false when the booking was not in the expected status.
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, from, to entity.BookingStatus, paymentRef *string) (bool, error)
}

// Item ids are folded into each row so a booking is read in one round trip.
const bookingColumns = `
	b.id, b.order_id, b.user_id, b.showtime_id, b.total_price, b.status, b.payment_ref,
	b.created_at, b.updated_at,
	ARRAY(SELECT bi.item_id FROM booking_items bi WHERE bi.booking_id = b.id ORDER BY bi.item_id)`

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.OrderID,
		&booking.UserID,
		&booking.ShowtimeID,
		&booking.TotalPrice,
		&booking.Status,
		&booking.PaymentRef,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.ItemIDs,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create inserts the booking and its item links. Run it inside a transaction.
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, order_id, user_id, showtime_id, total_price, status, payment_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.OrderID,
		booking.UserID,
		booking.ShowtimeID,
		booking.TotalPrice,
		booking.Status,
		booking.PaymentRef,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.OrderID, err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO booking_items (booking_id, item_id) SELECT $1, unnest($2::uuid[])`,
		booking.ID, booking.ItemIDs,
	)
	if err != nil {
		r.log.Error("Failed to create booking items",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
			zap.Int("items", len(booking.ItemIDs)),
		)
		return fmt.Errorf("create booking items for %s: %w", booking.OrderID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings for user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count bookings",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings for user %s: %w", userID.String(), err)
	}
	return total, nil
}

// CountBlockingByShowtimeID counts confirmed bookings and pending bookings
// that still own a live hold. A pending booking whose holds lapsed is an
// abandoned checkout and does not count.
func (r *bookingRepository) CountBlockingByShowtimeID(ctx context.Context, showtimeID uuid.UUID, now time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings b
		WHERE b.showtime_id = $1
		  AND (b.status = $2
		       OR (b.status = $3 AND EXISTS (
		            SELECT 1
		            FROM booking_items bi
		            JOIN inventory_items i ON i.id = bi.item_id
		            WHERE bi.booking_id = b.id
		              AND i.status = 'HELD'
		              AND i.held_by = b.user_id
		              AND i.hold_until >= $4)))
	`

	var total int64
	err := r.db.QueryRow(ctx, query,
		showtimeID, entity.BookingStatusConfirmed, entity.BookingStatusPending, now,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count active bookings for showtime %s: %w", showtimeID.String(), err)
	}
	return total, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, from, to entity.BookingStatus, paymentRef *string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $3, payment_ref = COALESCE($4, payment_ref), updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, bookingID, from, to, paymentRef)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("update booking %s status to %s: %w", bookingID.String(), string(to), err)
	}

	return result.RowsAffected() > 0, nil
}
