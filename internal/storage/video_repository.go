package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/accesslog-scanner/internal/models"
	"github.com/jackc/pgx/v5"
)

// VideoRepository provides read access to video reference data. The scanner
// never mutates videos; writes happen elsewhere in the hosting platform.
type VideoRepository struct {
	db *PostgresDB
}

// NewVideoRepository creates a new video repository
func NewVideoRepository(db *PostgresDB) *VideoRepository {
	return &VideoRepository{db: db}
}

// FindByBeHLSTag retrieves a video by its streaming tag. A stale or deleted
// tag returns (nil, nil) rather than an error; the caller decides whether
// that is worth reporting.
func (r *VideoRepository) FindByBeHLSTag(ctx context.Context, tag string) (*models.Video, error) {
	query := `
		SELECT id, account_id, title, video_tag, behls_tag, origin_name,
			   size, created_at, updated_at
		FROM video
		WHERE behls_tag = $1
	`

	var video models.Video

	err := r.db.Pool().QueryRow(ctx, query, tag).Scan(
		&video.ID,
		&video.AccountID,
		&video.Title,
		&video.VideoTag,
		&video.BeHLSTag,
		&video.OriginName,
		&video.Size,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find video by tag %s: %w", tag, err)
	}

	return &video, nil
}

// Create inserts a video row. Used by fixtures and the admin surface.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO video (account_id, title, video_tag, behls_tag, origin_name, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		video.AccountID,
		video.Title,
		video.VideoTag,
		video.BeHLSTag,
		video.OriginName,
		video.Size,
	).Scan(&video.ID, &video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}
