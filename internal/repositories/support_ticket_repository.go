package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"expertgate/internal/models"
)

type SupportTicketRepository interface {
	Create(ctx context.Context, t *models.SupportTicket) error
}

type supportTicketRepository struct {
	DB *sql.DB
}

func NewSupportTicketRepository(db *sql.DB) SupportTicketRepository {
	return &supportTicketRepository{DB: db}
}

func (r *supportTicketRepository) Create(ctx context.Context, t *models.SupportTicket) error {
	const q = `
		INSERT INTO support_tickets (id, name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.DB.ExecContext(ctx, q, t.ID, t.Name, t.Email, t.Subject, t.Message, t.CreatedAt); err != nil {
		return fmt.Errorf("support_tickets create: %w", err)
	}
	return nil
}
