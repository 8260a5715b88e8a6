package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"expertgate/internal/config"
	"expertgate/internal/models"
	"expertgate/internal/repositories"
	"expertgate/internal/utils"
)

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// IssuanceLimiter caps how often codes may be requested for one email.
type IssuanceLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type PasswordResetOptions struct {
	CodeTTL           time.Duration
	ReissuePolicy     string
	MinPasswordLength int
}

type passwordResetService struct {
	users   repositories.UserRepository
	codes   repositories.ResetCodeRepository
	emails  EmailService
	auth    AuthService
	limiter IssuanceLimiter
	opts    PasswordResetOptions
	log     *slog.Logger

	now     func() time.Time
	newCode func() (string, error)
}

func NewPasswordResetService(
	users repositories.UserRepository,
	codes repositories.ResetCodeRepository,
	emails EmailService,
	auth AuthService,
	limiter IssuanceLimiter,
	opts PasswordResetOptions,
	log *slog.Logger,
) PasswordResetService {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 15 * time.Minute
	}
	if opts.ReissuePolicy == "" {
		opts.ReissuePolicy = config.ReissueAllowMultiple
	}
	return &passwordResetService{
		users:   users,
		codes:   codes,
		emails:  emails,
		auth:    auth,
		limiter: limiter,
		opts:    opts,
		log:     log.With("component", "password-reset"),
		now:     time.Now,
		newCode: utils.NewResetCode,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, email)
		if err != nil {
			// limiter outage must not block resets
			s.log.WarnContext(ctx, "issuance limiter unavailable", "error", err)
		} else if !ok {
			return ErrRateLimited
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if user == nil {
		// don't leak existence
		s.log.InfoContext(ctx, "reset requested for unknown email", "email", email)
		return nil
	}

	now := s.now()
	if s.opts.ReissuePolicy == config.ReissueInvalidateOnReissue {
		n, err := s.codes.InvalidateOutstanding(ctx, email, now)
		if err != nil {
			return fmt.Errorf("invalidate outstanding codes: %w", err)
		}
		if n > 0 {
			s.log.InfoContext(ctx, "invalidated outstanding reset codes", "email", email, "count", n)
		}
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}
	rc := &models.ResetCode{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.CodeTTL),
	}
	if err := s.codes.Create(ctx, rc); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	// the row stays even if delivery fails
	if err := s.emails.SendResetCode(email, code, s.opts.CodeTTL); err != nil {
		return fmt.Errorf("deliver reset code: %w", err)
	}

	s.log.InfoContext(ctx, "reset code issued", "email", email, "code_id", rc.ID, "expires_at", rc.ExpiresAt)
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = utils.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	switch {
	case email == "":
		return ErrEmailRequired
	case code == "":
		return ErrCodeRequired
	case newPassword == "":
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(newPassword) < s.opts.MinPasswordLength {
		return ErrWeakPassword
	}

	now := s.now()
	rc, err := s.codes.FindLatestValid(ctx, email, code, now)
	if err != nil {
		return fmt.Errorf("lookup reset code: %w", err)
	}
	if rc == nil || !rc.IsValid(now) {
		return ErrInvalidCode
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	// claim before touching the credential so two concurrent requests
	// cannot both redeem the same row
	claimed, err := s.codes.MarkUsed(ctx, rc.ID)
	if err != nil {
		return fmt.Errorf("claim reset code: %w", err)
	}
	if !claimed {
		s.log.WarnContext(ctx, "reset code already consumed", "email", email, "code_id", rc.ID)
		return ErrInvalidCode
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err == nil {
		err = s.users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		if relErr := s.codes.Release(ctx, rc.ID); relErr != nil {
			s.log.ErrorContext(ctx, "failed to release reset code", "code_id", rc.ID, "error", relErr)
		}
		return fmt.Errorf("update credential: %w", err)
	}

	s.log.InfoContext(ctx, "password reset completed", "email", email, "user_id", user.ID, "code_id", rc.ID)
	return nil
}
