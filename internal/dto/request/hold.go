package request

type PlaceHoldRequest struct {
	ItemIDs     []string `json:"item_ids" validate:"required,min=1,max=50,dive,uuid"`
	HoldSeconds *int     `json:"hold_seconds,omitempty" validate:"omitempty,min=30"`
}

type ReleaseHoldRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,max=50,dive,uuid"`
}
