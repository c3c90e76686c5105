package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/accesslog-scanner/internal/models"
	"github.com/jackc/pgx/v5"
)

// AnimationGifRepository provides read access to animation GIF reference
// data.
type AnimationGifRepository struct {
	db *PostgresDB
}

// NewAnimationGifRepository creates a new animation GIF repository
func NewAnimationGifRepository(db *PostgresDB) *AnimationGifRepository {
	return &AnimationGifRepository{db: db}
}

// FindByHash retrieves an animation GIF by its content hash, together with
// its parent video for attribution. An unknown hash returns (nil, nil, nil).
func (r *AnimationGifRepository) FindByHash(ctx context.Context, hash string) (*models.AnimationGif, *models.Video, error) {
	query := `
		SELECT g.id, g.video_id, g.hash, g.size, g.created_at,
			   v.id, v.account_id, v.title, v.video_tag, v.behls_tag,
			   v.origin_name, v.size, v.created_at, v.updated_at
		FROM animation_gif g
		JOIN video v ON v.id = g.video_id
		WHERE g.hash = $1
	`

	var (
		gif   models.AnimationGif
		video models.Video
	)

	err := r.db.Pool().QueryRow(ctx, query, hash).Scan(
		&gif.ID,
		&gif.VideoID,
		&gif.Hash,
		&gif.Size,
		&gif.CreatedAt,
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
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to find animation gif by hash %s: %w", hash, err)
	}

	return &gif, &video, nil
}

// Create inserts an animation GIF row. Used by fixtures and the admin
// surface.
func (r *AnimationGifRepository) Create(ctx context.Context, gif *models.AnimationGif) error {
	query := `
		INSERT INTO animation_gif (video_id, hash, size)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		gif.VideoID,
		gif.Hash,
		gif.Size,
	).Scan(&gif.ID, &gif.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create animation gif: %w", err)
	}

	return nil
}
