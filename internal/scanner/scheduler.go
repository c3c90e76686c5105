package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/accesslog-scanner/internal/logging"
	"github.com/accesslog-scanner/internal/models"
	"github.com/accesslog-scanner/internal/types"
)

// SettingStore is the watermark persistence interface.
type SettingStore interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, key, value string) error
}

// HourProcessor processes one bucket and reports whether it was committed.
type HourProcessor interface {
	ProcessHour(ctx context.Context, bucket types.HourBucket) (bool, error)
}

// Scheduler drives one replay pass: it derives the pending hour buckets
// from the stored watermark, processes them in chronological order, and
// advances the watermark to the last bucket actually committed.
//
// The scheduler assumes it is the only running instance; buckets are both
// deleted and reinserted per pass, so concurrent runs over the same bucket
// would race. Mutual exclusion (cron singleton, lock file) is an
// operational precondition.
type Scheduler struct {
	settings  SettingStore
	processor HourProcessor
	now       func() time.Time
}

// NewScheduler creates a scheduler; a nil clock means time.Now.
func NewScheduler(settings SettingStore, processor HourProcessor, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		settings:  settings,
		processor: processor,
		now:       now,
	}
}

// RunReport summarizes one replay pass.
type RunReport struct {
	// Processed lists buckets that were fully streamed and committed.
	Processed []types.HourBucket
	// Skipped lists buckets attempted but not committed (missing file or
	// mid-stream failure); they stay pending for the next run.
	Skipped []types.HourBucket
	// Watermark is the bucket the watermark was advanced to, zero when no
	// bucket was processed and the watermark was left untouched.
	Watermark types.HourBucket
}

// Run executes one replay pass. Buckets run from watermark+1h up to but
// excluding the current hour; with no stored watermark the cursor starts at
// the current hour and nothing historical is backfilled.
//
// Per-bucket failures are logged and skipped. The only fatal outcome is a
// watermark load or save failure: losing the watermark update would silently
// reprocess buckets on every run and can mask a deeper storage fault.
func (s *Scheduler) Run(ctx context.Context) (*RunReport, error) {
	logger := logging.FromContext(ctx)

	setting, err := s.settings.Get(ctx, models.SettingKeyLastAccessLogCreated)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark: %w", err)
	}

	now := types.NewHourBucket(s.now())

	cursor := now
	if setting != nil {
		watermark, err := types.ParseHourBucket(setting.Value)
		if err != nil {
			return nil, fmt.Errorf("corrupt watermark value %q: %w", setting.Value, err)
		}
		cursor = watermark.Next()
	}

	logger.WithFields(map[string]interface{}{
		"cursor": cursor.String(),
		"now":    now.String(),
	}).Debug("starting replay pass")

	report := &RunReport{}
	var lastProcessed types.HourBucket

	for cursor.Before(now) {
		processed, err := s.processor.ProcessHour(ctx, cursor)
		if err != nil {
			// Bucket stays pending; later buckets are still attempted.
			logger.WithError(err).Warnf("bucket %s not processed", cursor)
			processed = false
		}

		if processed {
			lastProcessed = cursor
			report.Processed = append(report.Processed, cursor)
		} else {
			report.Skipped = append(report.Skipped, cursor)
		}

		cursor = cursor.Next()
	}

	if !lastProcessed.IsZero() {
		if err := s.settings.Upsert(ctx, models.SettingKeyLastAccessLogCreated, lastProcessed.SettingValue()); err != nil {
			return nil, fmt.Errorf("failed to save watermark: %w", err)
		}
		report.Watermark = lastProcessed
	}

	logger.WithFields(map[string]interface{}{
		"processed": len(report.Processed),
		"skipped":   len(report.Skipped),
	}).Info("replay pass finished")

	return report, nil
}
