package usecase

import (
	"context"
	"fmt"

	"cinema-inventory/internal/data/repository"
	"cinema-inventory/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService exposes the identity resolved by the session middleware.
// Accounts are managed by the external auth service.
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
}

type userService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		log:  log.With(zap.String("service", "user")),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("get profile: %w", err)
	}
	// session can outlive a deactivated account
	if user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}

	profile := response.UserToResponse(user)
	return &profile, nil
}
