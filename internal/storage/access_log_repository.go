package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/accesslog-scanner/internal/models"
	"github.com/accesslog-scanner/internal/types"
	"github.com/jackc/pgx/v5"
)

// AccessLogRepository handles the two materialized log tables, access_log
// and traffic_log. They form a single replay unit: all rows for an hour
// bucket are replaced together inside one transaction, which makes
// reprocessing a bucket idempotent no matter how often it happens.
type AccessLogRepository struct {
	db *PostgresDB
}

// NewAccessLogRepository creates a new access log repository
func NewAccessLogRepository(db *PostgresDB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

var accessLogColumns = []string{
	"account_id", "video_id", "type", "title", "video_tag", "behls_tag",
	"origin_name", "size", "animation_gif_hash", "animation_gif_size",
	"accessed_at", "accessed_on", "host", "ip", "protocol", "method",
	"port", "http_status_code", "device", "user_agent", "referer",
	"created_at",
}

var trafficLogColumns = []string{
	"type", "animation_gif_id", "traffic", "ip", "user_agent", "device",
	"created_at",
}

// ReplaceBucket atomically replaces all access_log and traffic_log rows for
// one hour bucket: a delete by bucket range followed by a bulk insert, in a
// single transaction. Either both tables reflect the new rows or neither
// does.
func (r *AccessLogRepository) ReplaceBucket(
	ctx context.Context,
	bucket types.HourBucket,
	accessLogs []*models.AccessLog,
	trafficLogs []*models.TrafficLog,
) error {
	from := bucket.Time()
	to := bucket.Next().Time()

	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx,
		`DELETE FROM access_log WHERE accessed_at >= $1 AND accessed_at < $2`,
		from, to,
	); err != nil {
		return fmt.Errorf("failed to delete access_log bucket %s: %w", bucket, err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM traffic_log WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	); err != nil {
		return fmt.Errorf("failed to delete traffic_log bucket %s: %w", bucket, err)
	}

	if len(accessLogs) > 0 {
		_, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"access_log"},
			accessLogColumns,
			pgx.CopyFromSlice(len(accessLogs), func(i int) ([]interface{}, error) {
				l := accessLogs[i]
				return []interface{}{
					l.AccountID, l.VideoID, l.Type, l.Title, l.VideoTag,
					l.BeHLSTag, l.OriginName, l.Size, l.AnimationGifHash,
					l.AnimationGifSize, l.AccessedAt, l.AccessedOn, l.Host,
					l.IP, l.Protocol, l.Method, l.Port, l.HTTPStatusCode,
					l.Device, l.UserAgent, l.Referer, l.CreatedAt,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to insert access_log bucket %s: %w", bucket, err)
		}
	}

	if len(trafficLogs) > 0 {
		_, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"traffic_log"},
			trafficLogColumns,
			pgx.CopyFromSlice(len(trafficLogs), func(i int) ([]interface{}, error) {
				l := trafficLogs[i]
				return []interface{}{
					l.Type, l.AnimationGifID, l.Traffic, l.IP, l.UserAgent,
					l.Device, l.CreatedAt,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to insert traffic_log bucket %s: %w", bucket, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit bucket %s: %w", bucket, err)
	}

	return nil
}

// ListAccessLogsByBucket retrieves all access_log rows for an hour bucket,
// ordered by accessed_at.
func (r *AccessLogRepository) ListAccessLogsByBucket(ctx context.Context, bucket types.HourBucket) ([]*models.AccessLog, error) {
	query := `
		SELECT id, account_id, video_id, type, title, video_tag, behls_tag,
			   origin_name, size, animation_gif_hash, animation_gif_size,
			   accessed_at, accessed_on, host, ip, protocol, method,
			   port, http_status_code, device, user_agent, referer, created_at
		FROM access_log
		WHERE accessed_at >= $1 AND accessed_at < $2
		ORDER BY accessed_at, id
	`

	rows, err := r.db.Pool().Query(ctx, query, bucket.Time(), bucket.Next().Time())
	if err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AccessLog
	for rows.Next() {
		var l models.AccessLog

		err := rows.Scan(
			&l.ID, &l.AccountID, &l.VideoID, &l.Type, &l.Title, &l.VideoTag,
			&l.BeHLSTag, &l.OriginName, &l.Size, &l.AnimationGifHash,
			&l.AnimationGifSize, &l.AccessedAt, &l.AccessedOn, &l.Host,
			&l.IP, &l.Protocol, &l.Method, &l.Port, &l.HTTPStatusCode,
			&l.Device, &l.UserAgent, &l.Referer, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access log: %w", err)
		}

		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access logs: %w", err)
	}

	return logs, nil
}

// CountBucket returns the number of access_log and traffic_log rows stored
// for an hour bucket.
func (r *AccessLogRepository) CountBucket(ctx context.Context, bucket types.HourBucket) (accessCount, trafficCount int64, err error) {
	from := bucket.Time()
	to := bucket.Next().Time()

	err = r.db.Pool().QueryRow(ctx,
		`SELECT count(*) FROM access_log WHERE accessed_at >= $1 AND accessed_at < $2`,
		from, to,
	).Scan(&accessCount)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count access_log bucket: %w", err)
	}

	err = r.db.Pool().QueryRow(ctx,
		`SELECT count(*) FROM traffic_log WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&trafficCount)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count traffic_log bucket: %w", err)
	}

	return accessCount, trafficCount, nil
}

// TrafficTotalSince sums transferred bytes per account starting from a
// given time. Used by the admin surface to report quota consumption.
func (r *AccessLogRepository) TrafficTotalSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(sum(t.traffic), 0)
		FROM traffic_log t
		JOIN animation_gif g ON g.id = t.animation_gif_id
		JOIN video v ON v.id = g.video_id
		WHERE v.account_id = $1 AND t.created_at >= $2
	`

	var total int64
	if err := r.db.Pool().QueryRow(ctx, query, accountID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum traffic: %w", err)
	}

	return total, nil
}
