package response

import (
	"time"

	"cinema-inventory/internal/data/entity"
)

type ShowtimeResponse struct {
	ID            string               `json:"id"`
	MovieID       string               `json:"movie_id"`
	Screen        string               `json:"screen"`
	ShowDate      string               `json:"show_date"`
	StartTime     time.Time            `json:"start_time"`
	EndTime       time.Time            `json:"end_time"`
	CutoffMinutes int                  `json:"cutoff_minutes"`
	IsArchived    bool                 `json:"is_archived"`
	Phase         entity.ShowtimePhase `json:"phase"`
	IsBookable    bool                 `json:"is_bookable"`
}

type GenerateResponse struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	// movies that got no showtime, usually more movies than slots
	Unscheduled []string `json:"unscheduled,omitempty"`
}

type ArchiveResponse struct {
	Archived  int64             `json:"archived"`
	Generated *GenerateResponse `json:"generated,omitempty"`
}

func ShowtimeToResponse(showtime *entity.Showtime, now time.Time) ShowtimeResponse {
	return ShowtimeResponse{
		ID:            showtime.ID.String(),
		MovieID:       showtime.MovieID.String(),
		Screen:        showtime.Screen,
		ShowDate:      showtime.ShowDate.Format("2006-01-02"),
		StartTime:     showtime.StartTime,
		EndTime:       showtime.EndTime,
		CutoffMinutes: showtime.CutoffMinutes,
		IsArchived:    showtime.IsArchived,
		Phase:         showtime.Phase(now),
		IsBookable:    showtime.IsBookable(now),
	}
}
