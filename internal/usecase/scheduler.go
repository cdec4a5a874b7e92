package usecase

import (
	"context"
	"sync"
	"time"

	"cinema-inventory/pkg/utils"

	"go.uber.org/zap"
)

// Scheduler runs the expiry sweep and the showtime lifecycle in the
// background. Both jobs also run once on Start.
type Scheduler struct {
	sweeper  *ExpirySweeper
	showtime ShowtimeService
	config   utils.SchedulerConfig
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	log      *zap.Logger
}

func NewScheduler(sweeper *ExpirySweeper, showtime ShowtimeService, config utils.SchedulerConfig, log *zap.Logger) *Scheduler {
	if config.SweepInterval <= 0 {
		config.SweepInterval = time.Minute
	}
	if config.LifecycleInterval <= 0 {
		config.LifecycleInterval = 10 * time.Minute
	}
	return &Scheduler{
		sweeper:  sweeper,
		showtime: showtime,
		config:   config,
		done:     make(chan struct{}),
		log:      log.With(zap.String("service", "scheduler")),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("Starting background jobs",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("lifecycle_interval", s.config.LifecycleInterval),
	)

	s.wg.Add(2)
	go s.every(ctx, s.config.SweepInterval, s.sweep)
	go s.every(ctx, s.config.LifecycleInterval, s.lifecycle)
}

// Stop signals both jobs and waits for the running tick to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	s.log.Info("Background jobs stopped")
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, job func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	job(ctx)
	for {
		select {
		case <-ticker.C:
			job(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	released, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.log.Error("Expiry sweep failed", zap.Error(err), zap.Int("released", released))
	}
}

func (s *Scheduler) lifecycle(ctx context.Context) {
	result, err := s.showtime.ArchivePastShowtimes(ctx)
	if err != nil {
		s.log.Error("Showtime lifecycle failed", zap.Error(err))
		return
	}
	if result.Generated != nil {
		s.log.Info("Next day scheduled",
			zap.String("date", result.Generated.Date),
			zap.Int("created", result.Generated.Created),
		)
	}
}
