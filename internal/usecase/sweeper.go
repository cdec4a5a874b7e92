package usecase

import (
	"context"
	"fmt"
	"time"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/internal/data/repository"

	"go.uber.org/zap"
)

// ExpirySweeper returns lapsed holds to AVAILABLE. Concurrent runs are safe:
// each batch locks its rows with SKIP LOCKED and re-checks the expiry.
type ExpirySweeper struct {
	repo      *repository.Repository
	notifier  *InventoryNotifier
	batchSize int
	now       func() time.Time
	log       *zap.Logger
}

func NewExpirySweeper(repo *repository.Repository, notifier *InventoryNotifier, batchSize int, log *zap.Logger) *ExpirySweeper {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ExpirySweeper{
		repo:      repo,
		notifier:  notifier,
		batchSize: batchSize,
		now:       time.Now,
		log:       log.With(zap.String("service", "sweeper")),
	}
}

// Sweep reclaims every hold that expired before now and reports how many
// items it released.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	var released []*entity.InventoryItem
	for {
		if err := ctx.Err(); err != nil {
			break
		}

		batch, err := s.repo.Inventory.ReleaseExpired(ctx, now, s.batchSize)
		if err != nil {
			// items already released stay released; tell their rooms
			s.notifier.ItemsChanged(ctx, released)
			return len(released), fmt.Errorf("sweep expired holds: %w", err)
		}
		released = append(released, batch...)

		if len(batch) < s.batchSize {
			break
		}
	}

	if len(released) > 0 {
		s.notifier.ItemsChanged(ctx, released)
		s.log.Info("Expired holds released", zap.Int("items", len(released)))
	}

	return len(released), nil
}
