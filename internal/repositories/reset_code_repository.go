package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expertgate/internal/models"
)

type ResetCodeRepository interface {
	Create(ctx context.Context, rc *models.ResetCode) error
	FindLatestValid(ctx context.Context, email, code string, now time.Time) (*models.ResetCode, error)
	MarkUsed(ctx context.Context, id int64) (bool, error)
	Release(ctx context.Context, id int64) error
	InvalidateOutstanding(ctx context.Context, email string, now time.Time) (int64, error)
}

type resetCodeRepository struct {
	DB *sql.DB
}

func NewResetCodeRepository(db *sql.DB) ResetCodeRepository {
	return &resetCodeRepository{DB: db}
}

// Create inserts a new row; every issuance is its own row.
func (r *resetCodeRepository) Create(ctx context.Context, rc *models.ResetCode) error {
	const q = `
		INSERT INTO reset_codes (email, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id
	`
	if err := r.DB.QueryRowContext(ctx, q, rc.Email, rc.Code, rc.ExpiresAt, rc.CreatedAt).Scan(&rc.ID); err != nil {
		return fmt.Errorf("reset_codes create: %w", err)
	}
	return nil
}

// FindLatestValid returns the newest unused, unexpired row for email+code,
// or nil when there is none.
func (r *resetCodeRepository) FindLatestValid(ctx context.Context, email, code string, now time.Time) (*models.ResetCode, error) {
	const q = `
		SELECT id, email, code, expires_at, used, created_at
		FROM reset_codes
		WHERE email = $1 AND code = $2 AND used = FALSE AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	var rc models.ResetCode
	err := r.DB.QueryRowContext(ctx, q, email, code, now).
		Scan(&rc.ID, &rc.Email, &rc.Code, &rc.ExpiresAt, &rc.Used, &rc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reset_codes find latest: %w", err)
	}
	return &rc, nil
}

// MarkUsed flips used only if the row is still unused. false means another
// request consumed it first.
func (r *resetCodeRepository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE reset_codes SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("reset_codes mark used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reset_codes mark used: %w", err)
	}
	return n == 1, nil
}

// Release undoes MarkUsed after a failed credential update.
func (r *resetCodeRepository) Release(ctx context.Context, id int64) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE reset_codes SET used = FALSE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("reset_codes release: %w", err)
	}
	return nil
}

// InvalidateOutstanding marks every still-redeemable code for email as used.
func (r *resetCodeRepository) InvalidateOutstanding(ctx context.Context, email string, now time.Time) (int64, error) {
	const q = `
		UPDATE reset_codes
		SET used = TRUE
		WHERE email = $1 AND used = FALSE AND expires_at > $2
	`
	res, err := r.DB.ExecContext(ctx, q, email, now)
	if err != nil {
		return 0, fmt.Errorf("reset_codes invalidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset_codes invalidate: %w", err)
	}
	return n, nil
}
