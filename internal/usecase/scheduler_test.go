package usecase

import (
	"context"
	"testing"
	"time"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/internal/dto/request"
	"cinema-inventory/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestScheduler_RunsJobsOnStart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	movie := f.addMovie("Alpha", entity.ReleaseStatusNowPlaying)
	st := f.addShowtime(movie, "Screen 7", f.now.Add(time.Hour), 15)
	ended := f.addShowtime(movie, "Screen 8", f.now.Add(-5*time.Hour), 15)

	if _, err := f.hold.PlaceHold(ctx, uuid.New(), st.ID.String(), &request.PlaceHoldRequest{
		ItemIDs: f.ids(st.ID, "A1"),
	}); err != nil {
		t.Fatalf("hold failed: %v", err)
	}
	f.advance(20 * time.Minute)

	scheduler := NewScheduler(f.sweeper, f.showtime, utils.SchedulerConfig{
		SweepInterval:     time.Hour,
		LifecycleInterval: time.Hour,
	}, zap.NewNop())
	scheduler.Start(ctx)
	scheduler.Stop()

	if item := f.itemsByCode(st.ID)["A1"]; item.Status != entity.ItemStatusAvailable {
		t.Fatalf("sweep job did not run, A1 is %s", item.Status)
	}
	if got, _ := f.repo.Showtime.FindByID(ctx, ended.ID); !got.IsArchived {
		t.Fatalf("lifecycle job did not archive the ended showtime")
	}

	// Stop is safe to call twice
	scheduler.Stop()
}
