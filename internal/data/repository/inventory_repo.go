package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type InventoryRepository interface {
	CreateBatch(ctx context.Context, items []*entity.InventoryItem) error
	FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.InventoryItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.InventoryItem, error)
	CountByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error)
	DeleteByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error)

	// Conditional state transitions. Each one is a single compare-and-swap
	// UPDATE and returns only the rows it actually moved.
	ClaimForHold(ctx context.Context, showtimeID uuid.UUID, ids []uuid.UUID, userID uuid.UUID, holdUntil time.Time) ([]*entity.InventoryItem, error)
	ReleaseHeld(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*entity.InventoryItem, error)
	ReleaseExpired(ctx context.Context, now time.Time, limit int) ([]*entity.InventoryItem, error)
	MarkSold(ctx context.Context, ids []uuid.UUID, userID uuid.UUID, now time.Time) ([]*entity.InventoryItem, error)
	Restock(ctx context.Context, ids []uuid.UUID) ([]*entity.InventoryItem, error)
}

const itemColumns = `id, showtime_id, kind, code, category, price, status, hold_until, held_by, created_at, updated_at`

// insertChunk keeps a single INSERT well below the 65535 parameter limit.
const insertChunk = 500

type inventoryRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewInventoryRepository(db database.Querier, log *zap.Logger) InventoryRepository {
	return &inventoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "inventory")),
	}
}

func scanItem(row rowScanner) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := row.Scan(
		&item.ID,
		&item.ShowtimeID,
		&item.Kind,
		&item.Code,
		&item.Category,
		&item.Price,
		&item.Status,
		&item.HoldUntil,
		&item.HeldBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func collectItems(rows pgx.Rows) ([]*entity.InventoryItem, error) {
	defer rows.Close()

	var items []*entity.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory rows: %w", err)
	}
	return items, nil
}

func (r *inventoryRepository) CreateBatch(ctx context.Context, items []*entity.InventoryItem) error {
	for start := 0; start < len(items); start += insertChunk {
		end := min(start+insertChunk, len(items))
		if err := r.insertChunk(ctx, items[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *inventoryRepository) insertChunk(ctx context.Context, items []*entity.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}

	var query strings.Builder
	query.WriteString(`INSERT INTO inventory_items (id, showtime_id, kind, code, category, price, status, created_at, updated_at) VALUES `)
	args := make([]any, 0, len(items)*9)

	for i, item := range items {
		if i > 0 {
			query.WriteString(", ")
		}
		n := i * 9
		fmt.Fprintf(&query, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)

		args = append(args,
			item.ID,
			item.ShowtimeID,
			item.Kind,
			item.Code,
			item.Category,
			item.Price,
			item.Status,
			item.CreatedAt,
			item.UpdatedAt,
		)
	}

	if _, err := r.db.Exec(ctx, query.String(), args...); err != nil {
		r.log.Error("Failed to create inventory batch",
			zap.Error(err),
			zap.Int("count", len(items)),
			zap.String("showtime_id", items[0].ShowtimeID.String()),
		)
		return fmt.Errorf("create inventory batch of %d: %w", len(items), err)
	}

	return nil
}

func (r *inventoryRepository) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE showtime_id = $1
		ORDER BY kind DESC, code
	`

	rows, err := r.db.Query(ctx, query, showtimeID)
	if err != nil {
		r.log.Error("Failed to find inventory by showtime",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return nil, fmt.Errorf("find inventory for showtime %s: %w", showtimeID, err)
	}

	return collectItems(rows)
}

func (r *inventoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.InventoryItem, error) {
	if len(ids) == 0 {
		return []*entity.InventoryItem{}, nil
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to find inventory by IDs", zap.Error(err), zap.Int("count", len(ids)))
		return nil, fmt.Errorf("find inventory items: %w", err)
	}

	return collectItems(rows)
}

func (r *inventoryRepository) CountByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items WHERE showtime_id = $1`, showtimeID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count inventory for showtime %s: %w", showtimeID, err)
	}
	return total, nil
}

func (r *inventoryRepository) DeleteByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE showtime_id = $1`, showtimeID)
	if err != nil {
		r.log.Error("Failed to delete inventory",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return 0, fmt.Errorf("delete inventory for showtime %s: %w", showtimeID, err)
	}
	return result.RowsAffected(), nil
}

// ClaimForHold moves AVAILABLE items to HELD. Anything already HELD (by
// anyone, the caller included) or SOLD is left untouched.
func (r *inventoryRepository) ClaimForHold(ctx context.Context, showtimeID uuid.UUID, ids []uuid.UUID, userID uuid.UUID, holdUntil time.Time) ([]*entity.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET status = 'HELD', hold_until = $4, held_by = $3, updated_at = NOW()
		WHERE showtime_id = $1
		  AND id = ANY($2)
		  AND status = 'AVAILABLE'
		RETURNING ` + itemColumns

	rows, err := r.db.Query(ctx, query, showtimeID, ids, userID, holdUntil)
	if err != nil {
		r.log.Error("Failed to claim inventory for hold",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
			zap.Int("count", len(ids)),
		)
		return nil, fmt.Errorf("claim inventory for hold: %w", err)
	}

	return collectItems(rows)
}

func (r *inventoryRepository) ReleaseHeld(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*entity.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET status = 'AVAILABLE', hold_until = NULL, held_by = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND status = 'HELD' AND held_by = $2
		RETURNING ` + itemColumns

	rows, err := r.db.Query(ctx, query, ids, userID)
	if err != nil {
		r.log.Error("Failed to release held inventory",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("release held inventory: %w", err)
	}

	return collectItems(rows)
}

// ReleaseExpired reclaims at most limit expired holds. Rows locked by a
// concurrent hold/confirm are skipped and the predicate is re-checked in the
// UPDATE, so a released or sold item is never reclaimed.
func (r *inventoryRepository) ReleaseExpired(ctx context.Context, now time.Time, limit int) ([]*entity.InventoryItem, error) {
	query := `
		WITH expired AS (
			SELECT id FROM inventory_items
			WHERE status = 'HELD' AND hold_until < $1
			ORDER BY hold_until
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE inventory_items i
		SET status = 'AVAILABLE', hold_until = NULL, held_by = NULL, updated_at = NOW()
		FROM expired
		WHERE i.id = expired.id AND i.status = 'HELD' AND i.hold_until < $1
		RETURNING i.id, i.showtime_id, i.kind, i.code, i.category, i.price, i.status,
		          i.hold_until, i.held_by, i.created_at, i.updated_at`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to release expired holds", zap.Error(err))
		return nil, fmt.Errorf("release expired holds: %w", err)
	}

	return collectItems(rows)
}

// MarkSold converts unexpired holds of userID into sales.
func (r *inventoryRepository) MarkSold(ctx context.Context, ids []uuid.UUID, userID uuid.UUID, now time.Time) ([]*entity.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET status = 'SOLD', hold_until = NULL, held_by = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND status = 'HELD' AND held_by = $2 AND hold_until >= $3
		RETURNING ` + itemColumns

	rows, err := r.db.Query(ctx, query, ids, userID, now)
	if err != nil {
		r.log.Error("Failed to mark inventory sold",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("mark inventory sold: %w", err)
	}

	return collectItems(rows)
}

// Restock returns SOLD items to AVAILABLE after a booking cancellation.
func (r *inventoryRepository) Restock(ctx context.Context, ids []uuid.UUID) ([]*entity.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET status = 'AVAILABLE', hold_until = NULL, held_by = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND status = 'SOLD'
		RETURNING ` + itemColumns

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to restock inventory", zap.Error(err), zap.Int("count", len(ids)))
		return nil, fmt.Errorf("restock inventory: %w", err)
	}

	return collectItems(rows)
}
