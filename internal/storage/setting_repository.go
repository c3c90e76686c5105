package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/accesslog-scanner/internal/models"
	"github.com/jackc/pgx/v5"
)

// SettingRepository handles key-value setting persistence, including the
// scanner's processing watermark.
type SettingRepository struct {
	db *PostgresDB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *PostgresDB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get retrieves a setting by key. A missing key returns (nil, nil); the
// watermark is legitimately absent until the first successful run.
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	query := `
		SELECT key, value, created_at, updated_at
		FROM settings
		WHERE key = $1
	`

	var setting models.Setting

	err := r.db.Pool().QueryRow(ctx, query, key).Scan(
		&setting.Key,
		&setting.Value,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return &setting, nil
}

// Upsert creates or updates a setting by key
func (r *SettingRepository) Upsert(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()
	`

	_, err := r.db.Pool().Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}

	return nil
}

// Delete removes a setting by key
func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM settings WHERE key = $1`

	result, err := r.db.Pool().Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("setting not found: %s", key)
	}

	return nil
}
