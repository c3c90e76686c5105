// Package retry provides exponential backoff for transient failures.
//
// It is used for establishing connections at process start. Bucket
// processing itself is never retried within a run: a failed bucket stays
// pending and the next scheduled run replays it.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/accesslog-scanner/internal/logging"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int           // Maximum number of attempts
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap on the delay between retries
	Multiplier   float64       // Multiplier for exponential backoff
}

// DefaultConfig returns a default retry configuration.
// Pattern: 1s, 2s, 4s, 8s, max 30s
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Func is a function that can be retried
type Func func(ctx context.Context, attempt int) error

// WithExponentialBackoff executes fn with exponential backoff, returning
// the last error when all attempts fail.
func WithExponentialBackoff(ctx context.Context, config *Config, fn Func) error {
	logger := logging.FromContext(ctx)

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				logger.WithField("attempts", attempt).Info("operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if attempt >= config.MaxAttempts {
			logger.WithError(err).WithField("attempts", attempt).Error("operation failed after max retry attempts")
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := calculateDelay(config, attempt)

		logger.WithFields(map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": config.MaxAttempts,
			"delay":       delay.String(),
			"error":       err.Error(),
		}).Warn("operation failed, retrying with exponential backoff")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// calculateDelay calculates the delay for the next retry attempt
func calculateDelay(config *Config, attempt int) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	return time.Duration(delay)
}
