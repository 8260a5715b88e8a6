package services

import (
	"context"
	"fmt"

	"expertgate/internal/authz"
	"expertgate/internal/repositories"
)

type ProfileService interface {
	ResolveView(ctx context.Context, userID int64) (string, error)
}

type profileService struct {
	users repositories.UserRepository
}

func NewProfileService(users repositories.UserRepository) ProfileService {
	return &profileService{users: users}
}

// ResolveView reads the stored role on every call; roles change when an
// expert is verified, so nothing is cached here.
func (s *profileService) ResolveView(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup profile: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	return authz.ViewForRole(user.Role), nil
}
