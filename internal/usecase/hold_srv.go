package usecase

import (
	"context"
	"fmt"
	"time"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/internal/dto/request"
	"cinema-inventory/internal/dto/response"
	"cinema-inventory/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HoldService interface {
	PlaceHold(ctx context.Context, userID uuid.UUID, showtimeID string, req *request.PlaceHoldRequest) (*response.HoldResponse, error)
	ReleaseHold(ctx context.Context, userID uuid.UUID, req *request.ReleaseHoldRequest) (*response.ReleaseResponse, error)
	GetInventory(ctx context.Context, showtimeID string) (*response.InventoryResponse, error)
}

type holdService struct {
	repo       *repository.Repository
	notifier   *InventoryNotifier
	holdFor    time.Duration
	maxHoldFor time.Duration
	now        func() time.Time
	log        *zap.Logger
}

func NewHoldService(repo *repository.Repository, notifier *InventoryNotifier, config utils.InventoryConfig, log *zap.Logger) HoldService {
	holdFor := config.HoldDuration
	if holdFor <= 0 {
		holdFor = 15 * time.Minute
	}
	maxHoldFor := config.MaxHoldDuration
	if maxHoldFor < holdFor {
		maxHoldFor = holdFor
	}

	return &holdService{
		repo:       repo,
		notifier:   notifier,
		holdFor:    holdFor,
		maxHoldFor: maxHoldFor,
		now:        time.Now,
		log:        log.With(zap.String("service", "hold")),
	}
}

// PlaceHold claims every requested item for userID or none of them.
func (s *holdService) PlaceHold(ctx context.Context, userID uuid.UUID, showtimeID string, req *request.PlaceHoldRequest) (*response.HoldResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Place hold validation failed", zap.Any("errors", errs))
		return nil, validationError("%s", utils.FormatValidationErrors(errs))
	}

	stID, err := parseID("showtime", showtimeID)
	if err != nil {
		return nil, err
	}
	itemIDs, err := parseIDs(req.ItemIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	showtime, err := s.repo.Showtime.FindByID(ctx, stID)
	if err != nil {
		return nil, fmt.Errorf("get showtime: %w", err)
	}
	if showtime == nil {
		return nil, ErrShowtimeNotFound
	}
	if !showtime.IsBookable(now) {
		s.log.Info("Hold rejected, booking window closed",
			zap.String("showtime_id", showtimeID),
			zap.String("phase", string(showtime.Phase(now))),
		)
		return nil, &WindowClosedError{Reason: showtime.ClosedReason(now)}
	}

	holdUntil := now.Add(s.holdDuration(req.HoldSeconds))

	var claimed []*entity.InventoryItem
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		items, err := tx.Inventory.ClaimForHold(ctx, stID, itemIDs, userID, holdUntil)
		if err != nil {
			return fmt.Errorf("claim items: %w", err)
		}
		if len(items) < len(itemIDs) {
			// returning an error rolls back the partial claim
			return firstUnclaimed(ctx, tx, stID, itemIDs, items)
		}
		claimed = items
		return nil
	})
	if err != nil {
		s.log.Info("Hold rejected",
			zap.Error(err),
			zap.String("showtime_id", showtimeID),
			zap.String("user_id", userID.String()),
			zap.Int("requested", len(itemIDs)),
		)
		return nil, err
	}

	claimed = inRequestOrder(claimed, itemIDs)
	s.notifier.ItemsChanged(ctx, claimed)

	s.log.Info("Hold placed",
		zap.String("showtime_id", showtimeID),
		zap.String("user_id", userID.String()),
		zap.Int("items", len(claimed)),
		zap.Time("hold_until", holdUntil),
	)

	return &response.HoldResponse{
		ShowtimeID: stID.String(),
		HoldUntil:  holdUntil,
		Items:      response.InventoryItemsToResponse(claimed),
	}, nil
}

// ReleaseHold frees the requested items the user still holds and skips the rest.
func (s *holdService) ReleaseHold(ctx context.Context, userID uuid.UUID, req *request.ReleaseHoldRequest) (*response.ReleaseResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Release hold validation failed", zap.Any("errors", errs))
		return nil, validationError("%s", utils.FormatValidationErrors(errs))
	}

	itemIDs, err := parseIDs(req.ItemIDs)
	if err != nil {
		return nil, err
	}

	released, err := s.repo.Inventory.ReleaseHeld(ctx, itemIDs, userID)
	if err != nil {
		s.log.Error("Failed to release holds", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("release holds: %w", err)
	}

	s.notifier.ItemsChanged(ctx, released)

	s.log.Info("Holds released",
		zap.String("user_id", userID.String()),
		zap.Int("requested", len(itemIDs)),
		zap.Int("released", len(released)),
	)

	return &response.ReleaseResponse{Released: len(released)}, nil
}

func (s *holdService) GetInventory(ctx context.Context, showtimeID string) (*response.InventoryResponse, error) {
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

	items, err := s.repo.Inventory.FindByShowtimeID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load inventory", zap.Error(err), zap.String("showtime_id", showtimeID))
		return nil, fmt.Errorf("get inventory: %w", err)
	}

	resp := response.InventoryToResponse(showtime, items, s.now())
	return &resp, nil
}

func (s *holdService) holdDuration(seconds *int) time.Duration {
	if seconds == nil {
		return s.holdFor
	}
	d := time.Duration(*seconds) * time.Second
	if d > s.maxHoldFor {
		return s.maxHoldFor
	}
	return d
}

// firstUnclaimed explains a short claim by the first requested id, in
// request order, that was not moved to HELD.
func firstUnclaimed(ctx context.Context, tx *repository.Repository, showtimeID uuid.UUID, requested []uuid.UUID, claimed []*entity.InventoryItem) error {
	got := make(map[uuid.UUID]struct{}, len(claimed))
	for _, item := range claimed {
		got[item.ID] = struct{}{}
	}

	current, err := tx.Inventory.FindByIDs(ctx, requested)
	if err != nil {
		return fmt.Errorf("load conflicting items: %w", err)
	}
	byID := make(map[uuid.UUID]*entity.InventoryItem, len(current))
	for _, item := range current {
		byID[item.ID] = item
	}

	for _, id := range requested {
		if _, ok := got[id]; ok {
			continue
		}
		item, ok := byID[id]
		if !ok || item.ShowtimeID != showtimeID {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return &ItemUnavailableError{Code: item.Code}
	}
	return fmt.Errorf("%w: claimed %d of %d items", ErrInvalidState, len(claimed), len(requested))
}

func inRequestOrder(items []*entity.InventoryItem, order []uuid.UUID) []*entity.InventoryItem {
	byID := make(map[uuid.UUID]*entity.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]*entity.InventoryItem, 0, len(items))
	for _, id := range order {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, validationError("invalid %s id %q", kind, raw)
	}
	return id, nil
}

// parseIDs parses item ids and drops repeats, keeping first occurrence order.
func parseIDs(raw []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := parseID("item", r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, validationError("at least one item is required")
	}
	return ids, nil
}
