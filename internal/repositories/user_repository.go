package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expertgate/internal/models"
)

// UserRepository is the identity store: lookups by email or id and the
// administrative credential/role updates. Accounts are created elsewhere.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRole(ctx context.Context, id int64, role string) error
}

var ErrAccountNotFound = errors.New("account not found")

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const accountColumns = `id, email, password_hash, full_name, role, created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByEmail matches case-insensitively; accounts are written by the identity
// provider with whatever casing the user typed. Returns nil, nil when missing.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("accounts get by email: %w", err)
	}
	return a, nil
}

// GetByID returns nil, nil when the account does not exist.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("accounts get by id: %w", err)
	}
	return a, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.updateOne(ctx, "update password",
		`UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
}

func (r *userRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	return r.updateOne(ctx, "update role",
		`UPDATE accounts SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
}

func (r *userRepository) updateOne(ctx context.Context, op, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("accounts %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("accounts %s: %w", op, err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
