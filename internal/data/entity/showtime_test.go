package entity

import (
	"testing"
	"time"
)

func TestShowtimePhase(t *testing.T) {
	start := time.Date(2026, 10, 16, 19, 30, 0, 0, time.UTC)
	st := &Showtime{StartTime: start, EndTime: start.Add(3 * time.Hour), CutoffMinutes: 15}

	tests := []struct {
		name     string
		now      time.Time
		archived bool
		phase    ShowtimePhase
		bookable bool
	}{
		{"well before", start.Add(-2 * time.Hour), false, PhaseBookable, true},
		{"exactly at cutoff", start.Add(-15 * time.Minute), false, PhaseBookable, true},
		{"inside cutoff", start.Add(-10 * time.Minute), false, PhaseCutoffPassed, false},
		{"running", start.Add(time.Hour), false, PhaseCutoffPassed, false},
		{"ended", start.Add(4 * time.Hour), false, PhaseEnded, false},
		{"archived", start.Add(-2 * time.Hour), true, PhaseArchived, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st.IsArchived = tt.archived
			if got := st.Phase(tt.now); got != tt.phase {
				t.Fatalf("phase = %s, want %s", got, tt.phase)
			}
			if got := st.IsBookable(tt.now); got != tt.bookable {
				t.Fatalf("bookable = %v, want %v", got, tt.bookable)
			}
			if reason := st.ClosedReason(tt.now); (reason == "") != tt.bookable {
				t.Fatalf("closed reason %q inconsistent with bookable=%v", reason, tt.bookable)
			}
		})
	}
}

func TestShowtimeZeroCutoff(t *testing.T) {
	start := time.Date(2026, 10, 16, 19, 30, 0, 0, time.UTC)
	st := &Showtime{StartTime: start, EndTime: start.Add(time.Hour)}

	if !st.IsBookable(start) {
		t.Fatalf("zero cutoff should allow holds up to the start")
	}
	if st.IsBookable(start.Add(time.Second)) {
		t.Fatalf("holds after start must be refused")
	}
}
