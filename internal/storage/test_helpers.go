package storage

import (
	"context"
	"testing"
	"time"

	"github.com/accesslog-scanner/internal/config"
)

// testContext creates a context with timeout for tests
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// testPostgresConfig points at the local development database.
func testPostgresConfig() *config.PostgresConfig {
	return &config.PostgresConfig{
		Host:           "localhost",
		Port:           "5432",
		Database:       "accesslog_scanner",
		User:           "scanner",
		Password:       "scanner_dev_password",
		MaxConnections: 10,
	}
}

// testDB connects to the local development database, skipping the test when
// running in short mode or when Postgres is not available.
func testDB(t *testing.T) *PostgresDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := NewPostgresDB(testPostgresConfig())
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)

	return db
}
