package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expertgate/internal/models"
)

type ContentRepository interface {
	List(ctx context.Context) ([]models.ContentEntry, error)
	Get(ctx context.Context, key string) (*models.ContentEntry, error)
}

type contentRepository struct {
	DB *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{DB: db}
}

func (r *contentRepository) List(ctx context.Context) ([]models.ContentEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT key, value, updated_at FROM site_content ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("site_content list: %w", err)
	}
	defer rows.Close()

	var out []models.ContentEntry
	for rows.Next() {
		var e models.ContentEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("site_content scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("site_content rows: %w", err)
	}
	return out, nil
}

// Get returns nil, nil when the key does not exist.
func (r *contentRepository) Get(ctx context.Context, key string) (*models.ContentEntry, error) {
	e := &models.ContentEntry{}
	err := r.DB.QueryRowContext(ctx, `SELECT key, value, updated_at FROM site_content WHERE key = $1`, key).
		Scan(&e.Key, &e.Value, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("site_content get: %w", err)
	}
	return e, nil
}
