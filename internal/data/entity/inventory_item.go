package entity

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind distinguishes the two inventory vocabularies sharing one shape.
type ItemKind string

const (
	ItemKindSeat    ItemKind = "seat"
	ItemKindParking ItemKind = "parking"
)

type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "AVAILABLE"
	ItemStatusHeld      ItemStatus = "HELD"
	ItemStatusSold      ItemStatus = "SOLD"
)

// Seat categories
const (
	CategoryDiamond  = "Diamond"
	CategoryPlatinum = "Platinum"
	CategoryGold     = "Gold"
	CategorySilver   = "Silver"
	CategoryBalcony  = "Balcony"
)

// Parking categories
const (
	CategoryTwoWheeler  = "twoWheeler"
	CategoryFourWheeler = "fourWheeler"
)

// InventoryItem is a seat or a parking slot of one showtime.
// HoldUntil and HeldBy are set exactly when Status is HELD.
type InventoryItem struct {
	BaseNoDelete
	ShowtimeID uuid.UUID  `db:"showtime_id"`
	Kind       ItemKind   `db:"kind"`
	Code       string     `db:"code"` // A1, TW5, ...
	Category   string     `db:"category"`
	Price      float64    `db:"price"`
	Status     ItemStatus `db:"status"`
	HoldUntil  *time.Time `db:"hold_until"`
	HeldBy     *uuid.UUID `db:"held_by"`
}

// IsHeldBy reports whether the item is an unexpired hold owned by userID.
func (i *InventoryItem) IsHeldBy(userID uuid.UUID, now time.Time) bool {
	return i.Status == ItemStatusHeld &&
		i.HeldBy != nil && *i.HeldBy == userID &&
		i.HoldUntil != nil && !i.HoldUntil.Before(now)
}

// HoldExpired reports whether a HELD item is past its hold window.
func (i *InventoryItem) HoldExpired(now time.Time) bool {
	return i.Status == ItemStatusHeld && i.HoldUntil != nil && i.HoldUntil.Before(now)
}
