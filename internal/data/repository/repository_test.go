package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"cinema-inventory/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"
)

var itemColumnNames = []string{"id", "showtime_id", "kind", "code", "category", "price", "status", "hold_until", "held_by", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock init error: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestInventoryClaimForHold(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())

	showtimeID, userID, itemID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	until := now.Add(15 * time.Minute)
	ids := []uuid.UUID{itemID}

	// only AVAILABLE rows are claimable, the caller's own holds included
	mock.ExpectQuery(`(?s)UPDATE inventory_items\s+SET status = 'HELD'.*AND status = 'AVAILABLE'\s+RETURNING`).
		WithArgs(showtimeID, ids, userID, until).
		WillReturnRows(pgxmock.NewRows(itemColumnNames).
			AddRow(itemID, showtimeID, "seat", "A1", "Gold", 300.0, "HELD", &until, &userID, now, now))

	items, err := repo.Inventory.ClaimForHold(context.Background(), showtimeID, ids, userID, until)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	item := items[0]
	if item.Kind != entity.ItemKindSeat || item.Status != entity.ItemStatusHeld || item.Code != "A1" {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.HeldBy == nil || *item.HeldBy != userID || item.HoldUntil == nil || !item.HoldUntil.Equal(until) {
		t.Fatalf("hold fields not scanned: %+v", item)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInventoryReleaseExpired_NothingToDo(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	now := time.Now()

	mock.ExpectQuery(`WITH expired AS .*FOR UPDATE SKIP LOCKED`).
		WithArgs(now, 500).
		WillReturnRows(pgxmock.NewRows(itemColumnNames))

	items, err := repo.Inventory.ReleaseExpired(context.Background(), now, 500)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no released items, got %d", len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInventoryCreateBatch_Chunks(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())

	showtimeID := uuid.New()
	items := make([]*entity.InventoryItem, insertChunk+1)
	for i := range items {
		items[i] = &entity.InventoryItem{
			BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
			ShowtimeID:   showtimeID,
			Kind:         entity.ItemKindSeat,
			Code:         "S" + uuid.NewString()[:6],
			Category:     entity.CategoryGold,
			Price:        300,
			Status:       entity.ItemStatusAvailable,
		}
	}

	mock.ExpectExec(`INSERT INTO inventory_items`).
		WithArgs(anyArgs(insertChunk * 9)...).
		WillReturnResult(pgxmock.NewResult("INSERT", insertChunk))
	mock.ExpectExec(`INSERT INTO inventory_items`).
		WithArgs(anyArgs(9)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Inventory.CreateBatch(context.Background(), items); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM inventory_items WHERE showtime_id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 135))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM showtimes WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	var removed int64
	err := repo.InTx(context.Background(), func(tx *Repository) error {
		if tx.Tx != nil {
			t.Fatalf("repository inside a transaction must not open another one")
		}
		var err error
		if removed, err = tx.Inventory.DeleteByShowtimeID(context.Background(), id); err != nil {
			return err
		}
		_, err = tx.Showtime.Delete(context.Background(), id)
		return err
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if removed != 135 {
		t.Fatalf("removed %d items", removed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())

	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		OrderID:      "BOOK-20261016-090000-0001",
		UserID:       uuid.New(),
		ShowtimeID:   uuid.New(),
		ItemIDs:      []uuid.UUID{uuid.New(), uuid.New()},
		TotalPrice:   600,
		Status:       entity.BookingStatusPending,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(anyArgs(9)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO booking_items`).
		WithArgs(booking.ID, booking.ItemIDs).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "foreign key violation"})
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx *Repository) error {
		return tx.Booking.Create(context.Background(), booking)
	})
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23503" {
		t.Fatalf("expected wrapped pg error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestShowtimeFindByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectQuery(`FROM showtimes WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "movie_id", "screen", "show_date", "start_time", "end_time", "cutoff_minutes", "is_archived", "created_at", "updated_at"}))

	showtime, err := repo.Showtime.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if showtime != nil {
		t.Fatalf("expected nil showtime, got %+v", showtime)
	}
}

func TestShowtimeExistsScreenSlot(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	start := time.Date(2026, 10, 17, 19, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM showtimes WHERE screen = $1 AND start_time = $2)`)).
		WithArgs("Screen 1", start).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Showtime.ExistsScreenSlot(context.Background(), "Screen 1", start)
	if err != nil || !exists {
		t.Fatalf("exists=%v err=%v", exists, err)
	}
}

func TestShowtimeArchiveEnded(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	now := time.Now()

	mock.ExpectExec(`UPDATE showtimes SET is_archived = TRUE`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.Showtime.ArchiveEnded(context.Background(), now)
	if err != nil || n != 3 {
		t.Fatalf("archived=%d err=%v", n, err)
	}
}

func TestBookingUpdateStatus_Conditional(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	id := uuid.New()
	ref := "PAY-1"

	mock.ExpectExec(`UPDATE bookings\s+SET status = \$3`).
		WithArgs(id, entity.BookingStatusPending, entity.BookingStatusConfirmed, &ref).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE bookings\s+SET status = \$3`).
		WithArgs(id, entity.BookingStatusPending, entity.BookingStatusConfirmed, &ref).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.Booking.UpdateStatus(context.Background(), id, entity.BookingStatusPending, entity.BookingStatusConfirmed, &ref)
	if err != nil || !ok {
		t.Fatalf("first update: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Booking.UpdateStatus(context.Background(), id, entity.BookingStatusPending, entity.BookingStatusConfirmed, &ref)
	if err != nil || ok {
		t.Fatalf("second update must not match: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingCountBlocking_OnlyLiveCheckouts(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	showtimeID := uuid.New()
	now := time.Date(2026, 10, 16, 9, 20, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\)\s+FROM bookings b.*b\.status = \$2.*b\.status = \$3 AND EXISTS.*i\.held_by = b\.user_id\s+AND i\.hold_until >= \$4`).
		WithArgs(showtimeID, entity.BookingStatusConfirmed, entity.BookingStatusPending, now).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	n, err := repo.Booking.CountBlockingByShowtimeID(context.Background(), showtimeID, now)
	if err != nil || n != 1 {
		t.Fatalf("count=%d err=%v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionFindValidSession_Missing(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	token := uuid.New()

	mock.ExpectQuery(`FROM sessions`).
		WithArgs(token).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token", "expires_at", "revoked_at", "created_at"}))

	session, err := repo.Session.FindValidSession(context.Background(), token.String())
	if err != nil || session != nil {
		t.Fatalf("session=%+v err=%v", session, err)
	}

	// malformed tokens never reach the database
	session, err = repo.Session.FindValidSession(context.Background(), "not-a-token")
	if err != nil || session != nil {
		t.Fatalf("session=%+v err=%v", session, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
