package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/internal/dto/request"
	"cinema-inventory/internal/dto/response"
	"cinema-inventory/pkg/database"
	"cinema-inventory/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCutoffMinutes = 15

type ShowtimeService interface {
	GetShowtime(ctx context.Context, showtimeID string) (*response.ShowtimeResponse, error)
	ListByMovie(ctx context.Context, movieID string) ([]response.ShowtimeResponse, error)
	ListByDate(ctx context.Context, date string) ([]response.ShowtimeResponse, error)

	// Admin
	CreateShowtime(ctx context.Context, req *request.ShowtimeRequest) (*response.ShowtimeResponse, error)
	UpdateShowtime(ctx context.Context, showtimeID string, req *request.ShowtimeUpdateRequest) (*response.ShowtimeResponse, error)
	DeleteShowtime(ctx context.Context, showtimeID string) error
	ReopenShowtime(ctx context.Context, showtimeID string) (*response.ShowtimeResponse, error)

	// Lifecycle
	ArchivePastShowtimes(ctx context.Context) (*response.ArchiveResponse, error)
	GenerateShowtimesForDate(ctx context.Context, date time.Time, movies []*entity.Movie, template ScreenTemplate) (*response.GenerateResponse, error)
	GenerateForDay(ctx context.Context, day string) (*response.GenerateResponse, error)
}

type showtimeService struct {
	repo     *repository.Repository
	layout   InventoryLayout
	template ScreenTemplate
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

func NewShowtimeService(
	repo *repository.Repository,
	layout InventoryLayout,
	template ScreenTemplate,
	loc *time.Location,
	log *zap.Logger,
) ShowtimeService {
	if loc == nil {
		loc = time.UTC
	}
	return &showtimeService{
		repo:     repo,
		layout:   layout,
		template: template,
		loc:      loc,
		now:      time.Now,
		log:      log.With(zap.String("service", "showtime")),
	}
}

func (s *showtimeService) GetShowtime(ctx context.Context, showtimeID string) (*response.ShowtimeResponse, error) {
	showtime, err := s.load(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	resp := response.ShowtimeToResponse(showtime, s.now())
	return &resp, nil
}

// ListByMovie returns the movie's showtimes that are not archived.
func (s *showtimeService) ListByMovie(ctx context.Context, movieID string) ([]response.ShowtimeResponse, error) {
	id, err := parseID("movie", movieID)
	if err != nil {
		return nil, err
	}

	showtimes, err := s.repo.Showtime.FindActiveByMovieID(ctx, id)
	if err != nil {
		s.log.Error("Failed to list showtimes", zap.Error(err), zap.String("movie_id", movieID))
		return nil, fmt.Errorf("list showtimes: %w", err)
	}

	now := s.now()
	out := make([]response.ShowtimeResponse, 0, len(showtimes))
	for _, showtime := range showtimes {
		out = append(out, response.ShowtimeToResponse(showtime, now))
	}
	return out, nil
}

// ListByDate returns every showtime of a cinema-local calendar day,
// archived ones included.
func (s *showtimeService) ListByDate(ctx context.Context, date string) ([]response.ShowtimeResponse, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, validationError("invalid date %q, expected YYYY-MM-DD", date)
	}

	showtimes, err := s.repo.Showtime.FindByDate(ctx, day)
	if err != nil {
		s.log.Error("Failed to list showtimes by date", zap.Error(err), zap.String("date", date))
		return nil, fmt.Errorf("list showtimes: %w", err)
	}

	now := s.now()
	out := make([]response.ShowtimeResponse, 0, len(showtimes))
	for _, showtime := range showtimes {
		out = append(out, response.ShowtimeToResponse(showtime, now))
	}
	return out, nil
}

func (s *showtimeService) CreateShowtime(ctx context.Context, req *request.ShowtimeRequest) (*response.ShowtimeResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create showtime validation failed", zap.Any("errors", errs))
		return nil, validationError("%s", utils.FormatValidationErrors(errs))
	}

	movieID, err := parseID("movie", req.MovieID)
	if err != nil {
		return nil, err
	}
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !start.After(now) {
		return nil, validationError("start_time must be in the future")
	}

	movie, err := s.repo.Movie.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}

	if err := s.checkOverlap(ctx, req.Screen, start, end, nil); err != nil {
		return nil, err
	}

	cutoff := defaultCutoffMinutes
	if req.CutoffMinutes != nil {
		cutoff = *req.CutoffMinutes
	}

	showtime := s.newShowtime(movieID, req.Screen, start, end, cutoff, now)
	if err := s.createWithInventory(ctx, showtime, now); err != nil {
		return nil, err
	}

	s.log.Info("Showtime created",
		zap.String("showtime_id", showtime.ID.String()),
		zap.String("movie_id", movieID.String()),
		zap.String("screen", showtime.Screen),
		zap.Time("start_time", start),
	)

	resp := response.ShowtimeToResponse(showtime, now)
	return &resp, nil
}

func (s *showtimeService) UpdateShowtime(ctx context.Context, showtimeID string, req *request.ShowtimeUpdateRequest) (*response.ShowtimeResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update showtime validation failed", zap.Any("errors", errs))
		return nil, validationError("%s", utils.FormatValidationErrors(errs))
	}

	showtime, err := s.load(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Screen != nil && *req.Screen != showtime.Screen {
		showtime.Screen = *req.Screen
		updated = true
	}
	if req.StartTime != nil {
		start, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			return nil, validationError("invalid start_time %q", *req.StartTime)
		}
		showtime.StartTime = start
		updated = true
	}
	if req.EndTime != nil {
		end, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return nil, validationError("invalid end_time %q", *req.EndTime)
		}
		showtime.EndTime = end
		updated = true
	}
	if req.CutoffMinutes != nil && *req.CutoffMinutes != showtime.CutoffMinutes {
		showtime.CutoffMinutes = *req.CutoffMinutes
		updated = true
	}

	now := s.now()
	if updated {
		if !showtime.EndTime.After(showtime.StartTime) {
			return nil, validationError("end_time must be after start_time")
		}
		if err := s.checkOverlap(ctx, showtime.Screen, showtime.StartTime, showtime.EndTime, &showtime.ID); err != nil {
			return nil, err
		}

		showtime.ShowDate = utils.DateOnly(showtime.StartTime.In(s.loc))
		showtime.UpdatedAt = now
		if err := s.repo.Showtime.Update(ctx, showtime); err != nil {
			if database.IsUniqueViolation(err) {
				return nil, fmt.Errorf("%w: %s already has a showtime at %s", ErrGenerationConflict, showtime.Screen, showtime.StartTime.Format(time.RFC3339))
			}
			s.log.Error("Failed to update showtime", zap.Error(err), zap.String("showtime_id", showtimeID))
			return nil, fmt.Errorf("update showtime: %w", err)
		}
	}

	s.log.Info("Showtime updated",
		zap.String("showtime_id", showtimeID),
		zap.Bool("was_updated", updated),
	)

	resp := response.ShowtimeToResponse(showtime, now)
	return &resp, nil
}

// DeleteShowtime removes the showtime together with its inventory.
func (s *showtimeService) DeleteShowtime(ctx context.Context, showtimeID string) error {
	showtime, err := s.load(ctx, showtimeID)
	if err != nil {
		return err
	}

	now := s.now()
	var removed int64
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		active, err := tx.Booking.CountBlockingByShowtimeID(ctx, showtime.ID, now)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: showtime has %d active bookings", ErrInvalidState, active)
		}

		removed, err = tx.Inventory.DeleteByShowtimeID(ctx, showtime.ID)
		if err != nil {
			return err
		}

		deleted, err := tx.Showtime.Delete(ctx, showtime.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrShowtimeNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidState) && !errors.Is(err, ErrNotFound) {
			s.log.Error("Failed to delete showtime", zap.Error(err), zap.String("showtime_id", showtimeID))
		}
		return err
	}

	s.log.Info("Showtime deleted",
		zap.String("showtime_id", showtimeID),
		zap.Int64("items_removed", removed),
	)
	return nil
}

// ReopenShowtime clears the archive flag. Booking still follows IsBookable,
// so a reopened showtime that has ended stays closed.
func (s *showtimeService) ReopenShowtime(ctx context.Context, showtimeID string) (*response.ShowtimeResponse, error) {
	showtime, err := s.load(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	if showtime.IsArchived {
		ok, err := s.repo.Showtime.SetArchived(ctx, showtime.ID, false)
		if err != nil {
			return nil, fmt.Errorf("reopen showtime: %w", err)
		}
		if !ok {
			return nil, ErrShowtimeNotFound
		}
		showtime.IsArchived = false
		s.log.Info("Showtime reopened", zap.String("showtime_id", showtimeID))
	}

	resp := response.ShowtimeToResponse(showtime, s.now())
	return &resp, nil
}

// ArchivePastShowtimes archives ended showtimes. When that empties the
// active schedule and tomorrow has nothing yet, tomorrow is generated.
func (s *showtimeService) ArchivePastShowtimes(ctx context.Context) (*response.ArchiveResponse, error) {
	now := s.now()

	archived, err := s.repo.Showtime.ArchiveEnded(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("archive showtimes: %w", err)
	}
	resp := &response.ArchiveResponse{Archived: archived}
	if archived == 0 {
		return resp, nil
	}

	s.log.Info("Showtimes archived", zap.Int64("count", archived))

	tomorrow := utils.DateOnly(now.In(s.loc)).AddDate(0, 0, 1)
	existing, err := s.repo.Showtime.CountByDate(ctx, tomorrow)
	if err != nil {
		return resp, fmt.Errorf("count showtimes for tomorrow: %w", err)
	}
	if existing > 0 {
		return resp, nil
	}

	resp.Generated, err = s.generateDay(ctx, tomorrow)
	return resp, err
}

func (s *showtimeService) GenerateForDay(ctx context.Context, day string) (*response.GenerateResponse, error) {
	today := utils.DateOnly(s.now().In(s.loc))

	switch day {
	case "today":
		return s.generateDay(ctx, today)
	case "tomorrow":
		return s.generateDay(ctx, today.AddDate(0, 0, 1))
	default:
		return nil, validationError("day must be today or tomorrow, got %q", day)
	}
}

func (s *showtimeService) generateDay(ctx context.Context, date time.Time) (*response.GenerateResponse, error) {
	movies, err := s.repo.Movie.FindNowPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("load now playing movies: %w", err)
	}
	return s.GenerateShowtimesForDate(ctx, date, movies, s.template)
}

// GenerateShowtimesForDate deals the free future slots of the template to
// movies round-robin, movies without a showtime that day first. A slot whose
// screen would still be busy with the chosen movie's runtime goes to the next
// movie that fits. Movies left without a showtime are reported. Each showtime
// is persisted together with its inventory or not at all.
func (s *showtimeService) GenerateShowtimesForDate(ctx context.Context, date time.Time, movies []*entity.Movie, template ScreenTemplate) (*response.GenerateResponse, error) {
	day := utils.DateOnly(date.In(s.loc))
	result := &response.GenerateResponse{Date: day.Format("2006-01-02")}

	movies = nowPlaying(movies)
	if len(movies) == 0 {
		s.log.Warn("No movies to schedule", zap.String("date", result.Date))
		return result, nil
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}

	scheduled, err := s.scheduledMovies(ctx, day)
	if err != nil {
		return nil, err
	}
	queue := unscheduledFirst(movies, scheduled)

	now := s.now()
	next := 0
	for _, slot := range template.Slots {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start, _ := slot.Times(day, s.loc)
		if !start.After(now) {
			result.Skipped++
			continue
		}

		exists, err := s.repo.Showtime.ExistsScreenSlot(ctx, slot.Screen, start)
		if err != nil {
			return result, fmt.Errorf("check slot %s %s: %w", slot.Screen, slot.Start, err)
		}
		if exists {
			result.Skipped++
			continue
		}

		picked, end, err := s.pickMovie(ctx, queue, next, slot, start)
		if err != nil {
			return result, err
		}
		if picked < 0 {
			s.log.Warn("No movie fits slot",
				zap.String("screen", slot.Screen),
				zap.Time("start_time", start),
			)
			result.Skipped++
			continue
		}
		movie := queue[picked]

		showtime := s.newShowtime(movie.ID, slot.Screen, start, end, slot.CutoffMinutes, now)
		if err := s.createWithInventory(ctx, showtime, now); err != nil {
			if errors.Is(err, ErrGenerationConflict) {
				// another instance generated the same slot concurrently
				result.Skipped++
				continue
			}
			s.log.Error("Failed to generate showtime",
				zap.Error(err),
				zap.String("screen", slot.Screen),
				zap.Time("start_time", start),
			)
			return result, err
		}
		next = picked + 1
		scheduled[movie.ID] = struct{}{}
		result.Created++
	}

	for _, movie := range movies {
		if _, ok := scheduled[movie.ID]; !ok {
			result.Unscheduled = append(result.Unscheduled, movie.ID.String())
		}
	}
	if len(result.Unscheduled) > 0 {
		s.log.Warn("Movies left without a showtime",
			zap.String("date", result.Date),
			zap.Int("movies", len(movies)),
			zap.Int("slots", len(template.Slots)),
			zap.Strings("movie_ids", result.Unscheduled),
		)
	}

	s.log.Info("Showtimes generated",
		zap.String("date", result.Date),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *showtimeService) newShowtime(movieID uuid.UUID, screen string, start, end time.Time, cutoff int, now time.Time) *entity.Showtime {
	return &entity.Showtime{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		MovieID:       movieID,
		Screen:        screen,
		ShowDate:      utils.DateOnly(start.In(s.loc)),
		StartTime:     start,
		EndTime:       end,
		CutoffMinutes: cutoff,
	}
}

// createWithInventory inserts the showtime and its seats and parking in one
// transaction.
func (s *showtimeService) createWithInventory(ctx context.Context, showtime *entity.Showtime, now time.Time) error {
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Showtime.Create(ctx, showtime); err != nil {
			return err
		}
		return tx.Inventory.CreateBatch(ctx, s.layout.Build(showtime.ID, now))
	})
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s at %s", ErrGenerationConflict, showtime.Screen, showtime.StartTime.Format(time.RFC3339))
	}
	return fmt.Errorf("create showtime with inventory: %w", err)
}

func (s *showtimeService) checkOverlap(ctx context.Context, screen string, start, end time.Time, excludeID *uuid.UUID) error {
	overlapping, err := s.repo.Showtime.FindOverlapping(ctx, screen, start, end, excludeID)
	if err != nil {
		return fmt.Errorf("check screen overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("%w: %s is busy from %s to %s", ErrGenerationConflict, screen,
			overlapping[0].StartTime.Format(time.RFC3339), overlapping[0].EndTime.Format(time.RFC3339))
	}
	return nil
}

func (s *showtimeService) load(ctx context.Context, showtimeID string) (*entity.Showtime, error) {
	id, err := parseID("showtime", showtimeID)
	if err != nil {
		return nil, err
	}

	showtime, err := s.repo.Showtime.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get showtime: %w", err)
	}
	if showtime == nil {
		return nil, ErrShowtimeNotFound
	}
	return showtime, nil
}

func parseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, validationError("invalid start_time %q", startRaw)
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, validationError("invalid end_time %q", endRaw)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, validationError("end_time must be after start_time")
	}
	return start, end, nil
}

func nowPlaying(movies []*entity.Movie) []*entity.Movie {
	out := make([]*entity.Movie, 0, len(movies))
	for _, m := range movies {
		if m != nil && m.IsNowPlaying() {
			out = append(out, m)
		}
	}
	return out
}

// scheduledMovies returns the movies that already have a showtime on day.
func (s *showtimeService) scheduledMovies(ctx context.Context, day time.Time) (map[uuid.UUID]struct{}, error) {
	existing, err := s.repo.Showtime.FindByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load showtimes of %s: %w", day.Format("2006-01-02"), err)
	}
	scheduled := make(map[uuid.UUID]struct{}, len(existing))
	for _, showtime := range existing {
		if !showtime.IsArchived {
			scheduled[showtime.MovieID] = struct{}{}
		}
	}
	return scheduled, nil
}

func unscheduledFirst(movies []*entity.Movie, scheduled map[uuid.UUID]struct{}) []*entity.Movie {
	queue := make([]*entity.Movie, 0, len(movies))
	for _, movie := range movies {
		if _, ok := scheduled[movie.ID]; !ok {
			queue = append(queue, movie)
		}
	}
	for _, movie := range movies {
		if _, ok := scheduled[movie.ID]; ok {
			queue = append(queue, movie)
		}
	}
	return queue
}

// pickMovie returns the index of the first movie, starting at next, whose
// runtime fits the slot without running into another showtime on the
// screen, or -1 when none does.
func (s *showtimeService) pickMovie(ctx context.Context, queue []*entity.Movie, next int, slot ScreenSlot, start time.Time) (int, time.Time, error) {
	for k := 0; k < len(queue); k++ {
		i := (next + k) % len(queue)
		end := start.Add(slot.Runtime(queue[i].DurationInMinutes))

		overlapping, err := s.repo.Showtime.FindOverlapping(ctx, slot.Screen, start, end, nil)
		if err != nil {
			return -1, time.Time{}, fmt.Errorf("check screen overlap: %w", err)
		}
		if len(overlapping) == 0 {
			return i, end, nil
		}
	}
	return -1, time.Time{}, nil
}
