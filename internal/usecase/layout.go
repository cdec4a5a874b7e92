package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"cinema-inventory/internal/data/entity"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// CategorySpec describes one pricing tier. Every prefix yields PerPrefix
// items coded <prefix><n>, n starting at 1.
type CategorySpec struct {
	Kind      entity.ItemKind `mapstructure:"kind"`
	Category  string          `mapstructure:"category"`
	Price     float64         `mapstructure:"price"`
	Prefixes  []string        `mapstructure:"prefixes"`
	PerPrefix int             `mapstructure:"per_prefix"`
}

// InventoryLayout is the single category table used by every generation path.
type InventoryLayout struct {
	Categories []CategorySpec `mapstructure:"categories"`
}

func DefaultLayout() InventoryLayout {
	return InventoryLayout{Categories: []CategorySpec{
		{Kind: entity.ItemKindSeat, Category: entity.CategoryDiamond, Price: 500, Prefixes: []string{"A", "B"}, PerPrefix: 10},
		{Kind: entity.ItemKindSeat, Category: entity.CategoryPlatinum, Price: 400, Prefixes: []string{"C", "D"}, PerPrefix: 10},
		{Kind: entity.ItemKindSeat, Category: entity.CategoryGold, Price: 300, Prefixes: []string{"E", "F"}, PerPrefix: 10},
		{Kind: entity.ItemKindSeat, Category: entity.CategorySilver, Price: 200, Prefixes: []string{"G", "H"}, PerPrefix: 10},
		{Kind: entity.ItemKindSeat, Category: entity.CategoryBalcony, Price: 250, Prefixes: []string{"I", "J"}, PerPrefix: 10},
		{Kind: entity.ItemKindParking, Category: entity.CategoryTwoWheeler, Price: 30, Prefixes: []string{"TW"}, PerPrefix: 20},
		{Kind: entity.ItemKindParking, Category: entity.CategoryFourWheeler, Price: 50, Prefixes: []string{"FW"}, PerPrefix: 15},
	}}
}

// Validate rejects layouts that would break (showtime_id, code) uniqueness
// or produce unpriced items.
func (l InventoryLayout) Validate() error {
	if len(l.Categories) == 0 {
		return validationError("layout has no categories")
	}

	seen := make(map[string]string)
	for _, spec := range l.Categories {
		if spec.Kind != entity.ItemKindSeat && spec.Kind != entity.ItemKindParking {
			return validationError("category %q has unknown kind %q", spec.Category, spec.Kind)
		}
		if spec.Category == "" {
			return validationError("category name is required")
		}
		if spec.Price <= 0 {
			return validationError("category %q must have a positive price", spec.Category)
		}
		if spec.PerPrefix <= 0 || len(spec.Prefixes) == 0 {
			return validationError("category %q must produce at least one item", spec.Category)
		}
		for _, prefix := range spec.Prefixes {
			for n := 1; n <= spec.PerPrefix; n++ {
				code := fmt.Sprintf("%s%d", prefix, n)
				if owner, dup := seen[code]; dup {
					return validationError("code %s produced by both %q and %q", code, owner, spec.Category)
				}
				seen[code] = spec.Category
			}
		}
	}
	return nil
}

// Size is the number of items Build produces.
func (l InventoryLayout) Size() int {
	total := 0
	for _, spec := range l.Categories {
		total += len(spec.Prefixes) * spec.PerPrefix
	}
	return total
}

// Build materializes a fresh AVAILABLE inventory for one showtime.
func (l InventoryLayout) Build(showtimeID uuid.UUID, now time.Time) []*entity.InventoryItem {
	items := make([]*entity.InventoryItem, 0, l.Size())
	for _, spec := range l.Categories {
		for _, prefix := range spec.Prefixes {
			for n := 1; n <= spec.PerPrefix; n++ {
				items = append(items, &entity.InventoryItem{
					BaseNoDelete: entity.BaseNoDelete{
						ID:        uuid.New(),
						CreatedAt: now,
						UpdatedAt: now,
					},
					ShowtimeID: showtimeID,
					Kind:       spec.Kind,
					Code:       fmt.Sprintf("%s%d", prefix, n),
					Category:   spec.Category,
					Price:      spec.Price,
					Status:     entity.ItemStatusAvailable,
				})
			}
		}
	}
	return items
}

// ScreenSlot is one time band of the daily schedule.
type ScreenSlot struct {
	Screen          string `mapstructure:"screen"`
	Start           string `mapstructure:"start"` // HH:MM, cinema local time
	DurationMinutes int    `mapstructure:"duration_minutes"`
	CutoffMinutes   int    `mapstructure:"cutoff_minutes"`
}

type ScreenTemplate struct {
	Slots []ScreenSlot `mapstructure:"slots"`
}

func DefaultScreenTemplate() ScreenTemplate {
	var slots []ScreenSlot
	bands := map[string][]string{
		"Screen 1": {"09:00", "12:30", "16:00", "19:30"},
		"Screen 2": {"10:00", "13:30", "17:00", "20:30"},
		"Screen 3": {"11:00", "14:30", "18:00", "21:30"},
	}
	for _, screen := range []string{"Screen 1", "Screen 2", "Screen 3"} {
		for _, start := range bands[screen] {
			slots = append(slots, ScreenSlot{Screen: screen, Start: start, DurationMinutes: 180, CutoffMinutes: 15})
		}
	}
	return ScreenTemplate{Slots: slots}
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func (t ScreenTemplate) Validate() error {
	if len(t.Slots) == 0 {
		return validationError("screen template has no slots")
	}

	seen := make(map[string]struct{})
	for _, slot := range t.Slots {
		if slot.Screen == "" {
			return validationError("slot screen is required")
		}
		if !clockPattern.MatchString(slot.Start) {
			return validationError("slot start %q must be HH:MM", slot.Start)
		}
		if slot.DurationMinutes <= 0 {
			return validationError("slot %s %s must have a positive duration", slot.Screen, slot.Start)
		}
		if slot.CutoffMinutes < 0 {
			return validationError("slot %s %s has a negative cutoff", slot.Screen, slot.Start)
		}
		key := slot.Screen + "@" + slot.Start
		if _, dup := seen[key]; dup {
			return validationError("slot %s listed twice", key)
		}
		seen[key] = struct{}{}
	}
	return t.checkBands()
}

// checkBands rejects bands that overlap on one screen.
func (t ScreenTemplate) checkBands() error {
	type band struct {
		start, end int
		label      string
	}
	byScreen := make(map[string][]band)
	for _, slot := range t.Slots {
		clock, _ := time.Parse("15:04", slot.Start)
		from := clock.Hour()*60 + clock.Minute()
		byScreen[slot.Screen] = append(byScreen[slot.Screen], band{
			start: from,
			end:   from + slot.DurationMinutes,
			label: slot.Start,
		})
	}

	for screen, bands := range byScreen {
		sort.Slice(bands, func(i, j int) bool { return bands[i].start < bands[j].start })
		for i := 1; i < len(bands); i++ {
			if bands[i].start < bands[i-1].end {
				return validationError("slots %s and %s overlap on %s", bands[i-1].label, bands[i].label, screen)
			}
		}
	}
	return nil
}

// Runtime is the band length, stretched for a movie that runs longer.
func (s ScreenSlot) Runtime(movieMinutes int) time.Duration {
	return time.Duration(max(s.DurationMinutes, movieMinutes)) * time.Minute
}

// Times anchors the slot on date in loc.
func (s ScreenSlot) Times(date time.Time, loc *time.Location) (start, end time.Time) {
	clock, _ := time.Parse("15:04", s.Start)
	y, m, d := date.Date()
	start = time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc)
	end = start.Add(time.Duration(s.DurationMinutes) * time.Minute)
	return start, end
}

// LoadLayout reads a layout file (yaml, json or toml). An empty path
// returns the built-in layout.
func LoadLayout(path string) (InventoryLayout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, layout.Validate()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return InventoryLayout{}, fmt.Errorf("read layout file %s: %w", path, err)
	}

	layout = InventoryLayout{}
	if err := v.Unmarshal(&layout); err != nil {
		return InventoryLayout{}, fmt.Errorf("decode layout file %s: %w", path, err)
	}
	if err := layout.Validate(); err != nil {
		return InventoryLayout{}, fmt.Errorf("layout file %s: %w", path, err)
	}
	return layout, nil
}

// LoadScreenTemplate mirrors LoadLayout for the daily slot template.
func LoadScreenTemplate(path string) (ScreenTemplate, error) {
	tmpl := DefaultScreenTemplate()
	if path == "" {
		return tmpl, tmpl.Validate()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return ScreenTemplate{}, fmt.Errorf("read screen template %s: %w", path, err)
	}

	tmpl = ScreenTemplate{}
	if err := v.Unmarshal(&tmpl); err != nil {
		return ScreenTemplate{}, fmt.Errorf("decode screen template %s: %w", path, err)
	}
	if err := tmpl.Validate(); err != nil {
		return ScreenTemplate{}, fmt.Errorf("screen template %s: %w", path, err)
	}
	return tmpl, nil
}
