package usecase

import (
	"context"
	"errors"
	"testing"

	"cinema-inventory/internal/data/entity"
	"cinema-inventory/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubUserRepo map[uuid.UUID]*entity.User

func (s stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return s[id], nil
}

func TestGetProfile(t *testing.T) {
	active := uuid.New()
	disabled := uuid.New()
	users := stubUserRepo{
		active:   {Base: entity.Base{ID: active}, Username: "ravi", Email: "ravi@example.com", Role: entity.RoleCustomer, IsActive: true},
		disabled: {Base: entity.Base{ID: disabled}, Username: "old", IsActive: false},
	}
	service := NewUserService(&repository.Repository{User: users}, zap.NewNop())

	profile, err := service.GetProfile(context.Background(), active)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.ID != active.String() || profile.Username != "ravi" || profile.Role != entity.RoleCustomer {
		t.Fatalf("profile = %+v", profile)
	}

	for _, id := range []uuid.UUID{disabled, uuid.New()} {
		if _, err := service.GetProfile(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
}
