package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/internal/events"
	"cinema-inventory/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// memStore is an in-memory stand-in for Postgres. Every conditional update
// runs under one lock, and InTx snapshots the whole store so a failed unit
// of work leaves nothing behind.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	movies    map[uuid.UUID]*entity.Movie
	showtimes map[uuid.UUID]*entity.Showtime
	items     map[uuid.UUID]*entity.InventoryItem
	bookings  map[uuid.UUID]*entity.Booking

	// failBatch makes the next CreateBatch calls fail.
	failBatch error
}

func newMemStore() *memStore {
	return &memStore{
		movies:    make(map[uuid.UUID]*entity.Movie),
		showtimes: make(map[uuid.UUID]*entity.Showtime),
		items:     make(map[uuid.UUID]*entity.InventoryItem),
		bookings:  make(map[uuid.UUID]*entity.Booking),
	}
}

type memSnapshot struct {
	movies    map[uuid.UUID]*entity.Movie
	showtimes map[uuid.UUID]*entity.Showtime
	items     map[uuid.UUID]*entity.InventoryItem
	bookings  map[uuid.UUID]*entity.Booking
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		movies:    make(map[uuid.UUID]*entity.Movie, len(s.movies)),
		showtimes: make(map[uuid.UUID]*entity.Showtime, len(s.showtimes)),
		items:     make(map[uuid.UUID]*entity.InventoryItem, len(s.items)),
		bookings:  make(map[uuid.UUID]*entity.Booking, len(s.bookings)),
	}
	for k, v := range s.movies {
		c := *v
		snap.movies[k] = &c
	}
	for k, v := range s.showtimes {
		snap.showtimes[k] = cloneShowtime(v)
	}
	for k, v := range s.items {
		snap.items[k] = cloneItem(v)
	}
	for k, v := range s.bookings {
		snap.bookings[k] = cloneBooking(v)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies = snap.movies
	s.showtimes = snap.showtimes
	s.items = snap.items
	s.bookings = snap.bookings
}

func newMemRepository(store *memStore) *repository.Repository {
	repo := &repository.Repository{
		Movie:     &memMovieRepo{store},
		Showtime:  &memShowtimeRepo{store},
		Inventory: &memInventoryRepo{store},
		Booking:   &memBookingRepo{store},
	}
	repo.Tx = func(ctx context.Context, fn func(tx *repository.Repository) error) error {
		store.txMu.Lock()
		defer store.txMu.Unlock()

		snap := store.snapshot()
		inner := *repo
		inner.Tx = nil
		if err := fn(&inner); err != nil {
			store.restore(snap)
			return err
		}
		return nil
	}
	return repo
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func cloneItem(i *entity.InventoryItem) *entity.InventoryItem {
	c := *i
	if i.HoldUntil != nil {
		t := *i.HoldUntil
		c.HoldUntil = &t
	}
	if i.HeldBy != nil {
		u := *i.HeldBy
		c.HeldBy = &u
	}
	return &c
}

func cloneShowtime(s *entity.Showtime) *entity.Showtime {
	c := *s
	return &c
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	c := *b
	c.ItemIDs = append([]uuid.UUID(nil), b.ItemIDs...)
	if b.PaymentRef != nil {
		ref := *b.PaymentRef
		c.PaymentRef = &ref
	}
	return &c
}

// ==================== movies ====================

type memMovieRepo struct{ s *memStore }

func (r *memMovieRepo) Create(ctx context.Context, movie *entity.Movie) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *movie
	r.s.movies[movie.ID] = &c
	return nil
}

func (r *memMovieRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.movies[id]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r *memMovieRepo) list(releaseStatus *string) []*entity.Movie {
	var out []*entity.Movie
	for _, m := range r.s.movies {
		if releaseStatus != nil && string(m.ReleaseStatus) != *releaseStatus {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Title < out[j].Title
	})
	return out
}

func (r *memMovieRepo) FindAll(ctx context.Context, offset, limit int, releaseStatus *string) ([]*entity.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.list(releaseStatus)
	if offset >= len(all) {
		return []*entity.Movie{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memMovieRepo) CountAll(ctx context.Context, releaseStatus *string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.list(releaseStatus))), nil
}

func (r *memMovieRepo) FindNowPlaying(ctx context.Context) ([]*entity.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	status := string(entity.ReleaseStatusNowPlaying)
	return r.list(&status), nil
}

// ==================== showtimes ====================

type memShowtimeRepo struct{ s *memStore }

func (r *memShowtimeRepo) Create(ctx context.Context, showtime *entity.Showtime) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.showtimes {
		if existing.Screen == showtime.Screen && existing.StartTime.Equal(showtime.StartTime) {
			return uniqueViolation()
		}
	}
	r.s.showtimes[showtime.ID] = cloneShowtime(showtime)
	return nil
}

func (r *memShowtimeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.showtimes[id]
	if !ok {
		return nil, nil
	}
	return cloneShowtime(st), nil
}

func (r *memShowtimeRepo) filter(keep func(*entity.Showtime) bool) []*entity.Showtime {
	var out []*entity.Showtime
	for _, st := range r.s.showtimes {
		if keep(st) {
			out = append(out, cloneShowtime(st))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].Screen < out[j].Screen
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (r *memShowtimeRepo) FindActiveByMovieID(ctx context.Context, movieID uuid.UUID) ([]*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(st *entity.Showtime) bool {
		return st.MovieID == movieID && !st.IsArchived
	}), nil
}

func (r *memShowtimeRepo) FindByDate(ctx context.Context, date time.Time) ([]*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(st *entity.Showtime) bool {
		return sameDay(st.ShowDate, date)
	}), nil
}

func (r *memShowtimeRepo) CountByDate(ctx context.Context, date time.Time) (int64, error) {
	found, _ := r.FindByDate(ctx, date)
	return int64(len(found)), nil
}

func (r *memShowtimeRepo) ExistsScreenSlot(ctx context.Context, screen string, start time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.showtimes {
		if st.Screen == screen && st.StartTime.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memShowtimeRepo) FindOverlapping(ctx context.Context, screen string, start, end time.Time, excludeID *uuid.UUID) ([]*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(st *entity.Showtime) bool {
		if st.Screen != screen || st.IsArchived {
			return false
		}
		if excludeID != nil && st.ID == *excludeID {
			return false
		}
		return st.StartTime.Before(end) && st.EndTime.After(start)
	}), nil
}

func (r *memShowtimeRepo) Update(ctx context.Context, showtime *entity.Showtime) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.showtimes[showtime.ID] = cloneShowtime(showtime)
	return nil
}

func (r *memShowtimeRepo) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.showtimes[id]
	if !ok {
		return false, nil
	}
	st.IsArchived = archived
	return true, nil
}

func (r *memShowtimeRepo) ArchiveEnded(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, st := range r.s.showtimes {
		if !st.IsArchived && st.EndTime.Before(now) {
			st.IsArchived = true
			n++
		}
	}
	return n, nil
}

func (r *memShowtimeRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.showtimes[id]; !ok {
		return false, nil
	}
	delete(r.s.showtimes, id)
	// bookings.showtime_id is ON DELETE CASCADE
	for bid, b := range r.s.bookings {
		if b.ShowtimeID == id {
			delete(r.s.bookings, bid)
		}
	}
	return true, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ==================== inventory ====================

type memInventoryRepo struct{ s *memStore }

func (r *memInventoryRepo) CreateBatch(ctx context.Context, items []*entity.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failBatch != nil {
		return r.s.failBatch
	}
	for _, item := range items {
		for _, existing := range r.s.items {
			if existing.ShowtimeID == item.ShowtimeID && existing.Code == item.Code {
				return uniqueViolation()
			}
		}
		r.s.items[item.ID] = cloneItem(item)
	}
	return nil
}

func (r *memInventoryRepo) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.InventoryItem{}
	for _, item := range r.s.items {
		if item.ShowtimeID == showtimeID {
			out = append(out, cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind > out[j].Kind
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *memInventoryRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.InventoryItem{}
	for _, id := range ids {
		if item, ok := r.s.items[id]; ok {
			out = append(out, cloneItem(item))
		}
	}
	return out, nil
}

func (r *memInventoryRepo) CountByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	items, _ := r.FindByShowtimeID(ctx, showtimeID)
	return int64(len(items)), nil
}

func (r *memInventoryRepo) DeleteByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, item := range r.s.items {
		if item.ShowtimeID == showtimeID {
			delete(r.s.items, id)
			n++
		}
	}
	return n, nil
}

// update applies fn to each listed item matching cond and returns the moved rows.
func (r *memInventoryRepo) update(ids []uuid.UUID, cond func(*entity.InventoryItem) bool, fn func(*entity.InventoryItem)) []*entity.InventoryItem {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.InventoryItem{}
	for _, id := range ids {
		item, ok := r.s.items[id]
		if !ok || !cond(item) {
			continue
		}
		fn(item)
		out = append(out, cloneItem(item))
	}
	return out
}

func (r *memInventoryRepo) ClaimForHold(ctx context.Context, showtimeID uuid.UUID, ids []uuid.UUID, userID uuid.UUID, holdUntil time.Time) ([]*entity.InventoryItem, error) {
	return r.update(ids, func(i *entity.InventoryItem) bool {
		if i.ShowtimeID != showtimeID {
			return false
		}
		return i.Status == entity.ItemStatusAvailable
	}, func(i *entity.InventoryItem) {
		until := holdUntil
		user := userID
		i.Status = entity.ItemStatusHeld
		i.HoldUntil = &until
		i.HeldBy = &user
	}), nil
}

func clearHold(i *entity.InventoryItem) {
	i.Status = entity.ItemStatusAvailable
	i.HoldUntil = nil
	i.HeldBy = nil
}

func (r *memInventoryRepo) ReleaseHeld(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*entity.InventoryItem, error) {
	return r.update(ids, func(i *entity.InventoryItem) bool {
		return i.Status == entity.ItemStatusHeld && i.HeldBy != nil && *i.HeldBy == userID
	}, clearHold), nil
}

func (r *memInventoryRepo) ReleaseExpired(ctx context.Context, now time.Time, limit int) ([]*entity.InventoryItem, error) {
	r.s.mu.Lock()
	var ids []uuid.UUID
	for id, item := range r.s.items {
		if item.HoldExpired(now) {
			ids = append(ids, id)
		}
		if len(ids) == limit {
			break
		}
	}
	r.s.mu.Unlock()

	return r.update(ids, func(i *entity.InventoryItem) bool {
		return i.HoldExpired(now)
	}, clearHold), nil
}

func (r *memInventoryRepo) MarkSold(ctx context.Context, ids []uuid.UUID, userID uuid.UUID, now time.Time) ([]*entity.InventoryItem, error) {
	return r.update(ids, func(i *entity.InventoryItem) bool {
		return i.IsHeldBy(userID, now)
	}, func(i *entity.InventoryItem) {
		i.Status = entity.ItemStatusSold
		i.HoldUntil = nil
		i.HeldBy = nil
	}), nil
}

func (r *memInventoryRepo) Restock(ctx context.Context, ids []uuid.UUID) ([]*entity.InventoryItem, error) {
	return r.update(ids, func(i *entity.InventoryItem) bool {
		return i.Status == entity.ItemStatusSold
	}, clearHold), nil
}

// ==================== bookings ====================

type memBookingRepo struct{ s *memStore }

func (r *memBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return cloneBooking(b), nil
}

func (r *memBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Booking
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			all = append(all, cloneBooking(b))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []*entity.Booking{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) CountBlockingByShowtimeID(ctx context.Context, showtimeID uuid.UUID, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bookings {
		if b.ShowtimeID != showtimeID {
			continue
		}
		switch b.Status {
		case entity.BookingStatusConfirmed:
			n++
		case entity.BookingStatusPending:
			for _, id := range b.ItemIDs {
				if item, ok := r.s.items[id]; ok && item.IsHeldBy(b.UserID, now) {
					n++
					break
				}
			}
		}
	}
	return n, nil
}

func (r *memBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, from, to entity.BookingStatus, paymentRef *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[bookingID]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if paymentRef != nil {
		ref := *paymentRef
		b.PaymentRef = &ref
	}
	return true, nil
}

// ==================== realtime and events ====================

type broadcastCall struct {
	Room    string
	Event   string
	Payload json.RawMessage
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, room, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{Room: room, Event: event, Payload: raw})
	return nil
}

func (b *recordingBroadcaster) Calls() []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcastCall(nil), b.calls...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// ==================== fixture ====================

// fixture wires every service over one memStore with a controllable clock.
type fixture struct {
	store       *memStore
	repo        *repository.Repository
	broadcaster *recordingBroadcaster
	publisher   *recordingPublisher
	now         time.Time

	hold     *holdService
	sweeper  *ExpirySweeper
	showtime *showtimeService
	booking  *bookingService
	movie    *movieService
}

func newFixture() *fixture {
	log := zap.NewNop()
	f := &fixture{
		store:       newMemStore(),
		broadcaster: &recordingBroadcaster{},
		publisher:   &recordingPublisher{},
		now:         time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
	f.repo = newMemRepository(f.store)
	clock := func() time.Time { return f.now }

	notifier := NewInventoryNotifier(f.broadcaster, log)

	f.hold = NewHoldService(f.repo, notifier, testInventoryConfig(), log).(*holdService)
	f.hold.now = clock

	f.sweeper = NewExpirySweeper(f.repo, notifier, 2, log)
	f.sweeper.now = clock

	f.showtime = NewShowtimeService(f.repo, smallLayout(), DefaultScreenTemplate(), time.UTC, log).(*showtimeService)
	f.showtime.now = clock

	f.booking = NewBookingService(f.repo, notifier, f.publisher, log).(*bookingService)
	f.booking.now = clock

	f.movie = NewMovieService(f.repo, log).(*movieService)
	f.movie.now = clock

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func testInventoryConfig() utils.InventoryConfig {
	return utils.InventoryConfig{
		HoldDuration:    15 * time.Minute,
		MaxHoldDuration: 30 * time.Minute,
	}
}

// smallLayout keeps fixtures readable: 4 seats and 2 parking slots.
func smallLayout() InventoryLayout {
	return InventoryLayout{Categories: []CategorySpec{
		{Kind: entity.ItemKindSeat, Category: entity.CategoryGold, Price: 300, Prefixes: []string{"A", "B"}, PerPrefix: 2},
		{Kind: entity.ItemKindParking, Category: entity.CategoryTwoWheeler, Price: 30, Prefixes: []string{"TW"}, PerPrefix: 2},
	}}
}

func (f *fixture) addMovie(title string, status entity.ReleaseStatus) *entity.Movie {
	movie := &entity.Movie{
		Base:              entity.Base{ID: uuid.New(), CreatedAt: f.now, UpdatedAt: f.now},
		Title:             title,
		ReleaseDate:       f.now.AddDate(0, -1, 0),
		DurationInMinutes: 150,
		ReleaseStatus:     status,
	}
	_ = f.repo.Movie.Create(context.Background(), movie)
	return movie
}

// addShowtime stores a showtime starting at start with its full inventory.
func (f *fixture) addShowtime(movie *entity.Movie, screen string, start time.Time, cutoff int) *entity.Showtime {
	st := f.showtime.newShowtime(movie.ID, screen, start, start.Add(3*time.Hour), cutoff, f.now)
	if err := f.showtime.createWithInventory(context.Background(), st, f.now); err != nil {
		panic(err)
	}
	return st
}

// itemsByCode indexes a showtime's inventory by code.
func (f *fixture) itemsByCode(showtimeID uuid.UUID) map[string]*entity.InventoryItem {
	items, _ := f.repo.Inventory.FindByShowtimeID(context.Background(), showtimeID)
	out := make(map[string]*entity.InventoryItem, len(items))
	for _, item := range items {
		out[item.Code] = item
	}
	return out
}

func (f *fixture) ids(showtimeID uuid.UUID, codes ...string) []string {
	byCode := f.itemsByCode(showtimeID)
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, byCode[code].ID.String())
	}
	return out
}
