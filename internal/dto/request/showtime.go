package request

// Times use RFC 3339 so the cinema offset travels with the value.
type ShowtimeRequest struct {
	MovieID       string `json:"movie_id" validate:"required,uuid"`
	Screen        string `json:"screen" validate:"required,min=1,max=50"`
	StartTime     string `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime       string `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	CutoffMinutes *int   `json:"cutoff_minutes,omitempty" validate:"omitempty,min=0,max=240"`
}

type ShowtimeUpdateRequest struct {
	Screen        *string `json:"screen,omitempty" validate:"omitempty,min=1,max=50"`
	StartTime     *string `json:"start_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime       *string `json:"end_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CutoffMinutes *int    `json:"cutoff_minutes,omitempty" validate:"omitempty,min=0,max=240"`
}

type GenerateShowtimesRequest struct {
	Day string `json:"day" validate:"required,oneof=today tomorrow"`
}
