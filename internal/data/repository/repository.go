package repository

import (
	"context"

	"cinema-inventory/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxFunc runs fn with a Repository whose members share one transaction.
type TxFunc func(ctx context.Context, fn func(tx *Repository) error) error

type Repository struct {
	User      UserRepository
	Session   SessionRepository
	Movie     MovieRepository
	Showtime  ShowtimeRepository
	Inventory InventoryRepository
	Booking   BookingRepository

	// Tx is nil inside a transaction; InTx then runs fn on the same repository.
	Tx TxFunc
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = func(ctx context.Context, fn func(tx *Repository) error) error {
		return database.WithTx(ctx, db, func(tx pgx.Tx) error {
			return fn(newRepository(tx, log))
		})
	}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:      NewUserRepository(q, log),
		Session:   NewSessionRepository(q, log),
		Movie:     NewMovieRepository(q, log),
		Showtime:  NewShowtimeRepository(q, log),
		Inventory: NewInventoryRepository(q, log),
		Booking:   NewBookingRepository(q, log),
	}
}

// InTx executes fn atomically. Nested calls reuse the outer transaction.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx(ctx, fn)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
