package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ShowtimePhase string

const (
	PhaseBookable     ShowtimePhase = "BOOKABLE"
	PhaseCutoffPassed ShowtimePhase = "CUTOFF_PASSED"
	PhaseEnded        ShowtimePhase = "ENDED"
	PhaseArchived     ShowtimePhase = "ARCHIVED"
)

type Showtime struct {
	BaseNoDelete
	MovieID       uuid.UUID `db:"movie_id"`
	Screen        string    `db:"screen"`
	ShowDate      time.Time `db:"show_date"`
	StartTime     time.Time `db:"start_time"`
	EndTime       time.Time `db:"end_time"`
	CutoffMinutes int       `db:"cutoff_minutes"`
	IsArchived    bool      `db:"is_archived"`
}

// CutoffTime is the last instant at which a hold may still be placed.
func (s *Showtime) CutoffTime() time.Time {
	return s.StartTime.Add(-time.Duration(s.CutoffMinutes) * time.Minute)
}

// IsBookable: now <= start - cutoff, now < end, not archived.
func (s *Showtime) IsBookable(now time.Time) bool {
	return !s.IsArchived && !now.After(s.CutoffTime()) && now.Before(s.EndTime)
}

// IsEnded reports whether the screening is over.
func (s *Showtime) IsEnded(now time.Time) bool {
	return now.After(s.EndTime)
}

// Phase derives the lifecycle state at now.
func (s *Showtime) Phase(now time.Time) ShowtimePhase {
	switch {
	case s.IsArchived:
		return PhaseArchived
	case s.IsEnded(now):
		return PhaseEnded
	case s.IsBookable(now):
		return PhaseBookable
	default:
		return PhaseCutoffPassed
	}
}

// ClosedReason explains why booking is not possible, empty when bookable.
func (s *Showtime) ClosedReason(now time.Time) string {
	if s.IsBookable(now) {
		return ""
	}
	switch {
	case s.IsArchived:
		return "showtime has been archived"
	case !now.Before(s.EndTime):
		return "showtime has already ended"
	case now.After(s.StartTime):
		return "showtime has already started"
	default:
		return fmt.Sprintf("booking closes %d minutes before the show starts", s.CutoffMinutes)
	}
}
