package usecase

import (
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/internal/events"
	"cinema-inventory/internal/realtime"
	"cinema-inventory/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Hold      HoldService
	Showtime  ShowtimeService
	Booking   BookingService
	Movie     MovieService
	User      UserService
	Sweeper   *ExpirySweeper
	Scheduler *Scheduler
}

// Deps groups the collaborators that are built outside the use case layer.
type Deps struct {
	Broadcaster realtime.Broadcaster
	Publisher   events.Publisher
	Layout      InventoryLayout
	Template    ScreenTemplate
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	notifier := NewInventoryNotifier(deps.Broadcaster, log)
	showtime := NewShowtimeService(repo, deps.Layout, deps.Template, config.App.Location(), log)
	sweeper := NewExpirySweeper(repo, notifier, config.Scheduler.SweepBatchSize, log)

	return &Service{
		Hold:      NewHoldService(repo, notifier, config.Inventory, log),
		Showtime:  showtime,
		Booking:   NewBookingService(repo, notifier, deps.Publisher, log),
		Movie:     NewMovieService(repo, log),
		User:      NewUserService(repo, log),
		Sweeper:   sweeper,
		Scheduler: NewScheduler(sweeper, showtime, config.Scheduler, log),
	}
}
