package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cinema-inventory/internal/data/entity"

	"github.com/google/uuid"
)

func TestDefaultLayout(t *testing.T) {
	layout := DefaultLayout()
	if err := layout.Validate(); err != nil {
		t.Fatalf("default layout invalid: %v", err)
	}
	if layout.Size() != 135 {
		t.Fatalf("size %d, want 100 seats + 35 parking", layout.Size())
	}

	showtimeID := uuid.New()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	items := layout.Build(showtimeID, now)

	codes := make(map[string]bool, len(items))
	seats, parking := 0, 0
	for _, item := range items {
		if codes[item.Code] {
			t.Fatalf("duplicate code %s", item.Code)
		}
		codes[item.Code] = true
		if item.Status != entity.ItemStatusAvailable || item.ShowtimeID != showtimeID || item.HeldBy != nil {
			t.Fatalf("item %s not fresh: %+v", item.Code, item)
		}
		if item.Kind == entity.ItemKindSeat {
			seats++
		} else {
			parking++
		}
	}
	if seats != 100 || parking != 35 {
		t.Fatalf("seats=%d parking=%d", seats, parking)
	}
	if !codes["A1"] || !codes["J10"] || !codes["TW20"] || !codes["FW15"] {
		t.Fatalf("expected boundary codes missing")
	}
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout InventoryLayout
	}{
		{"empty", InventoryLayout{}},
		{"overlapping prefixes", InventoryLayout{Categories: []CategorySpec{
			{Kind: entity.ItemKindSeat, Category: "Gold", Price: 300, Prefixes: []string{"A"}, PerPrefix: 5},
			{Kind: entity.ItemKindSeat, Category: "Silver", Price: 200, Prefixes: []string{"A"}, PerPrefix: 5},
		}}},
		{"free seats", InventoryLayout{Categories: []CategorySpec{
			{Kind: entity.ItemKindSeat, Category: "Gold", Price: 0, Prefixes: []string{"A"}, PerPrefix: 5},
		}}},
		{"unknown kind", InventoryLayout{Categories: []CategorySpec{
			{Kind: "balloon", Category: "Gold", Price: 10, Prefixes: []string{"A"}, PerPrefix: 5},
		}}},
		{"no items", InventoryLayout{Categories: []CategorySpec{
			{Kind: entity.ItemKindParking, Category: "twoWheeler", Price: 30, PerPrefix: 5},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.layout.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLoadLayout_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	content := `categories:
  - kind: seat
    category: Recliner
    price: 650
    prefixes: [R]
    per_prefix: 8
  - kind: parking
    category: fourWheeler
    price: 60
    prefixes: [FW]
    per_prefix: 4
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write layout: %v", err)
	}

	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}
	if layout.Size() != 12 {
		t.Fatalf("size %d, want 12", layout.Size())
	}
	if layout.Categories[0].Category != "Recliner" || layout.Categories[0].Price != 650 {
		t.Fatalf("unexpected first category %+v", layout.Categories[0])
	}

	if _, err := LoadLayout(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	def, err := LoadLayout("")
	if err != nil || def.Size() != DefaultLayout().Size() {
		t.Fatalf("empty path should give default layout, err=%v", err)
	}
}

func TestLoadScreenTemplate_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.json")
	content := `{"slots": [
		{"screen": "Screen 1", "start": "10:00", "duration_minutes": 150, "cutoff_minutes": 20},
		{"screen": "Screen 1", "start": "14:00", "duration_minutes": 150, "cutoff_minutes": 20}
	]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}

	tmpl, err := LoadScreenTemplate(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if len(tmpl.Slots) != 2 || tmpl.Slots[1].Start != "14:00" || tmpl.Slots[0].CutoffMinutes != 20 {
		t.Fatalf("unexpected template %+v", tmpl)
	}
}

func TestScreenTemplate(t *testing.T) {
	if err := DefaultScreenTemplate().Validate(); err != nil {
		t.Fatalf("default template invalid: %v", err)
	}

	dup := ScreenTemplate{Slots: []ScreenSlot{
		{Screen: "Screen 1", Start: "10:00", DurationMinutes: 120},
		{Screen: "Screen 1", Start: "10:00", DurationMinutes: 90},
	}}
	if err := dup.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate slot, got %v", err)
	}

	crowded := ScreenTemplate{Slots: []ScreenSlot{
		{Screen: "Screen 1", Start: "10:00", DurationMinutes: 180},
		{Screen: "Screen 2", Start: "10:00", DurationMinutes: 180},
		{Screen: "Screen 1", Start: "09:00", DurationMinutes: 180},
	}}
	if err := crowded.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for overlapping bands, got %v", err)
	}
	backToBack := ScreenTemplate{Slots: []ScreenSlot{
		{Screen: "Screen 1", Start: "09:00", DurationMinutes: 180},
		{Screen: "Screen 1", Start: "12:00", DurationMinutes: 180},
	}}
	if err := backToBack.Validate(); err != nil {
		t.Fatalf("adjacent bands rejected: %v", err)
	}

	loc := time.FixedZone("IST", 5*3600+1800)
	slot := ScreenSlot{Screen: "Screen 2", Start: "19:30", DurationMinutes: 180}
	start, end := slot.Times(time.Date(2026, 10, 17, 0, 0, 0, 0, loc), loc)
	if start.Hour() != 19 || start.Minute() != 30 || start.Location() != loc {
		t.Fatalf("start %v", start)
	}
	if end.Sub(start) != 3*time.Hour {
		t.Fatalf("duration %v", end.Sub(start))
	}
	if got := slot.Runtime(150); got != 3*time.Hour {
		t.Fatalf("short movie runtime %v", got)
	}
	if got := slot.Runtime(200); got != 200*time.Minute {
		t.Fatalf("long movie runtime %v", got)
	}
}
