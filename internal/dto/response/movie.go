package response

import (
	"time"

	"cinema-inventory/internal/data/entity"
)

type MovieResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description,omitempty"`
	ReleaseDate       string    `json:"release_date"`
	DurationInMinutes int       `json:"duration_in_minutes"`
	ReleaseStatus     string    `json:"release_status"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
}

type MovieDetailResponse struct {
	MovieResponse
	Showtimes []ShowtimeResponse `json:"showtimes"`
}

func MovieToResponse(movie *entity.Movie) MovieResponse {
	return MovieResponse{
		ID:                movie.ID.String(),
		Title:             movie.Title,
		Description:       movie.Description,
		ReleaseDate:       movie.ReleaseDate.Format("2006-01-02"),
		DurationInMinutes: movie.DurationInMinutes,
		ReleaseStatus:     string(movie.ReleaseStatus),
		CreatedAt:         movie.CreatedAt,
	}
}
