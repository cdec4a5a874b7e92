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

type ShowtimeRepository interface {
	Create(ctx context.Context, showtime *entity.Showtime) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error)
	FindActiveByMovieID(ctx context.Context, movieID uuid.UUID) ([]*entity.Showtime, error)
	FindByDate(ctx context.Context, date time.Time) ([]*entity.Showtime, error)
	CountByDate(ctx context.Context, date time.Time) (int64, error)
	ExistsScreenSlot(ctx context.Context, screen string, start time.Time) (bool, error)
	FindOverlapping(ctx context.Context, screen string, start, end time.Time, excludeID *uuid.UUID) ([]*entity.Showtime, error)
	Update(ctx context.Context, showtime *entity.Showtime) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) (bool, error)
	ArchiveEnded(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

const showtimeColumns = `id, movie_id, screen, show_date, start_time, end_time, cutoff_minutes, is_archived, created_at, updated_at`

type showtimeRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewShowtimeRepository(db database.Querier, log *zap.Logger) ShowtimeRepository {
	return &showtimeRepository{
		db:  db,
		log: log.With(zap.String("repository", "showtime")),
	}
}

func scanShowtime(row rowScanner) (*entity.Showtime, error) {
	var showtime entity.Showtime
	err := row.Scan(
		&showtime.ID,
		&showtime.MovieID,
		&showtime.Screen,
		&showtime.ShowDate,
		&showtime.StartTime,
		&showtime.EndTime,
		&showtime.CutoffMinutes,
		&showtime.IsArchived,
		&showtime.CreatedAt,
		&showtime.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &showtime, nil
}

func (r *showtimeRepository) collect(rows pgx.Rows) ([]*entity.Showtime, error) {
	defer rows.Close()

	var showtimes []*entity.Showtime
	for rows.Next() {
		showtime, err := scanShowtime(rows)
		if err != nil {
			r.log.Error("Failed to scan showtime row", zap.Error(err))
			return nil, fmt.Errorf("scan showtime: %w", err)
		}
		showtimes = append(showtimes, showtime)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate showtimes: %w", err)
	}
	return showtimes, nil
}

func (r *showtimeRepository) Create(ctx context.Context, showtime *entity.Showtime) error {
	query := `
		INSERT INTO showtimes (id, movie_id, screen, show_date, start_time, end_time,
		                       cutoff_minutes, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		showtime.ID,
		showtime.MovieID,
		showtime.Screen,
		showtime.ShowDate,
		showtime.StartTime,
		showtime.EndTime,
		showtime.CutoffMinutes,
		showtime.IsArchived,
		showtime.CreatedAt,
		showtime.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create showtime",
			zap.Error(err),
			zap.String("movie_id", showtime.MovieID.String()),
			zap.String("screen", showtime.Screen),
			zap.Time("start_time", showtime.StartTime),
		)
		return fmt.Errorf("create showtime for movie %s on %s: %w",
			showtime.MovieID.String(), showtime.Screen, err)
	}

	return nil
}

func (r *showtimeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = $1`

	showtime, err := scanShowtime(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find showtime by ID",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return nil, fmt.Errorf("find showtime %s: %w", id.String(), err)
	}

	return showtime, nil
}

func (r *showtimeRepository) FindActiveByMovieID(ctx context.Context, movieID uuid.UUID) ([]*entity.Showtime, error) {
	query := `
		SELECT ` + showtimeColumns + `
		FROM showtimes
		WHERE movie_id = $1 AND is_archived = FALSE
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, movieID)
	if err != nil {
		r.log.Error("Failed to find showtimes by movie",
			zap.Error(err),
			zap.String("movie_id", movieID.String()),
		)
		return nil, fmt.Errorf("find showtimes for movie %s: %w", movieID.String(), err)
	}

	return r.collect(rows)
}

func (r *showtimeRepository) FindByDate(ctx context.Context, date time.Time) ([]*entity.Showtime, error) {
	query := `
		SELECT ` + showtimeColumns + `
		FROM showtimes
		WHERE show_date = $1
		ORDER BY screen, start_time
	`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		r.log.Error("Failed to find showtimes by date", zap.Error(err), zap.Time("date", date))
		return nil, fmt.Errorf("find showtimes on %s: %w", date.Format(time.DateOnly), err)
	}

	return r.collect(rows)
}

func (r *showtimeRepository) CountByDate(ctx context.Context, date time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM showtimes WHERE show_date = $1`, date).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count showtimes by date", zap.Error(err), zap.Time("date", date))
		return 0, fmt.Errorf("count showtimes on %s: %w", date.Format(time.DateOnly), err)
	}
	return total, nil
}

// ExistsScreenSlot reports whether a screen already has a showtime at start.
func (r *showtimeRepository) ExistsScreenSlot(ctx context.Context, screen string, start time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM showtimes WHERE screen = $1 AND start_time = $2)`,
		screen, start,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot %s at %s: %w", screen, start.Format(time.RFC3339), err)
	}
	return exists, nil
}

// FindOverlapping returns unarchived showtimes on screen whose interval
// intersects [start, end).
func (r *showtimeRepository) FindOverlapping(ctx context.Context, screen string, start, end time.Time, excludeID *uuid.UUID) ([]*entity.Showtime, error) {
	query := `
		SELECT ` + showtimeColumns + `
		FROM showtimes
		WHERE screen = $1
		  AND is_archived = FALSE
		  AND start_time < $3
		  AND end_time > $2
		  AND ($4::uuid IS NULL OR id <> $4)
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, screen, start, end, excludeID)
	if err != nil {
		r.log.Error("Failed to find overlapping showtimes",
			zap.Error(err),
			zap.String("screen", screen),
		)
		return nil, fmt.Errorf("find overlapping showtimes on %s: %w", screen, err)
	}

	return r.collect(rows)
}

func (r *showtimeRepository) Update(ctx context.Context, showtime *entity.Showtime) error {
	query := `
		UPDATE showtimes
		SET movie_id = $2, screen = $3, show_date = $4, start_time = $5,
		    end_time = $6, cutoff_minutes = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		showtime.ID,
		showtime.MovieID,
		showtime.Screen,
		showtime.ShowDate,
		showtime.StartTime,
		showtime.EndTime,
		showtime.CutoffMinutes,
		showtime.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update showtime",
			zap.Error(err),
			zap.String("showtime_id", showtime.ID.String()),
		)
		return fmt.Errorf("update showtime %s: %w", showtime.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("showtime %s not found", showtime.ID.String())
	}

	return nil
}

func (r *showtimeRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (bool, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE showtimes SET is_archived = $2, updated_at = NOW() WHERE id = $1`,
		id, archived,
	)
	if err != nil {
		r.log.Error("Failed to set showtime archive flag",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
			zap.Bool("archived", archived),
		)
		return false, fmt.Errorf("set archived on showtime %s: %w", id.String(), err)
	}
	return result.RowsAffected() > 0, nil
}

// ArchiveEnded flags every unarchived showtime that ended before now.
func (r *showtimeRepository) ArchiveEnded(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE showtimes SET is_archived = TRUE, updated_at = NOW() WHERE is_archived = FALSE AND end_time < $1`,
		now,
	)
	if err != nil {
		r.log.Error("Failed to archive ended showtimes", zap.Error(err))
		return 0, fmt.Errorf("archive ended showtimes: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *showtimeRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM showtimes WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete showtime",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return false, fmt.Errorf("delete showtime %s: %w", id.String(), err)
	}
	return result.RowsAffected() > 0, nil
}
