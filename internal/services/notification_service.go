package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"expertgate/internal/authz"
	"expertgate/internal/models"
	"expertgate/internal/repositories"
	"expertgate/internal/utils"
)

type NotificationService interface {
	NotifyExpertSignup(ctx context.Context, s models.ExpertSignup) error
	NotifyExpertVerified(ctx context.Context, v models.ExpertVerification) error
	SubmitSupportTicket(ctx context.Context, t *models.SupportTicket) error
}

type NotificationOptions struct {
	AdminRecipients []string
	SupportInbox    string
}

type notificationService struct {
	users   repositories.UserRepository
	tickets repositories.SupportTicketRepository
	emails  EmailService
	ops     OpsNotifier
	opts    NotificationOptions
	log     *slog.Logger
	now     func() time.Time
}

func NewNotificationService(
	users repositories.UserRepository,
	tickets repositories.SupportTicketRepository,
	emails EmailService,
	ops OpsNotifier,
	opts NotificationOptions,
	log *slog.Logger,
) NotificationService {
	return &notificationService{
		users:   users,
		tickets: tickets,
		emails:  emails,
		ops:     ops,
		opts:    opts,
		log:     log.With("component", "notifications"),
		now:     time.Now,
	}
}

func (s *notificationService) NotifyExpertSignup(ctx context.Context, su models.ExpertSignup) error {
	su.Name = strings.TrimSpace(su.Name)
	su.Email = utils.NormalizeEmail(su.Email)
	su.Expertise = strings.TrimSpace(su.Expertise)
	if su.Name == "" || su.Email == "" {
		return ErrMissingFields
	}

	var errs []error
	for _, to := range s.opts.AdminRecipients {
		if err := s.emails.SendExpertSignupAdminNotice(to, su); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.emails.SendExpertSignupReceived(su); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("expert signup notification: %w", err)
	}

	s.log.InfoContext(ctx, "expert signup notified", "email", su.Email, "admins", len(s.opts.AdminRecipients))
	return nil
}

func (s *notificationService) NotifyExpertVerified(ctx context.Context, v models.ExpertVerification) error {
	v.Email = utils.NormalizeEmail(v.Email)
	if v.Email == "" {
		return ErrEmailRequired
	}

	user, err := s.users.GetByEmail(ctx, v.Email)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if strings.TrimSpace(v.Name) == "" {
		v.Name = user.FullName
	}

	// admins keep their role
	if user.Role == authz.RoleResearcher {
		if err := s.users.UpdateRole(ctx, user.ID, authz.RoleExpert); err != nil {
			return fmt.Errorf("promote to expert: %w", err)
		}
	}
	if err := s.emails.SendExpertVerified(v); err != nil {
		return fmt.Errorf("expert verified notification: %w", err)
	}

	s.log.InfoContext(ctx, "expert verified", "email", v.Email, "user_id", user.ID)
	return nil
}

func (s *notificationService) SubmitSupportTicket(ctx context.Context, t *models.SupportTicket) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Email = utils.NormalizeEmail(t.Email)
	t.Subject = strings.TrimSpace(t.Subject)
	t.Message = strings.TrimSpace(t.Message)
	if t.Email == "" || t.Message == "" {
		return ErrMissingFields
	}

	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	if err := s.tickets.Create(ctx, t); err != nil {
		return fmt.Errorf("store support ticket: %w", err)
	}

	if err := s.emails.SendSupportTicket(s.opts.SupportInbox, *t); err != nil {
		return fmt.Errorf("support ticket notification: %w", err)
	}

	if s.ops != nil {
		if err := s.ops.NotifySupportTicket(*t); err != nil {
			s.log.WarnContext(ctx, "ops chat alert failed", "ticket_id", t.ID, "error", err)
		}
	}

	s.log.InfoContext(ctx, "support ticket submitted", "ticket_id", t.ID, "email", t.Email)
	return nil
}
