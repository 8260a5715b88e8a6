package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"expertgate/internal/models"
	"expertgate/internal/repositories"
	"expertgate/internal/utils"
)

type AuthService interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
}

type authService struct {
	users repositories.UserRepository
	cost  int
}

func NewAuthService(users repositories.UserRepository) AuthService {
	return &authService{users: users, cost: bcrypt.DefaultCost}
}

func (s *authService) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *authService) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticate returns ErrInvalidCredentials for both an unknown email and
// a wrong password.
func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !s.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
