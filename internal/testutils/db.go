// Package testutils provides a disposable postgres database for tests.
package testutils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gchung00/daily-qt/internal/storage"
)

const postgresImage = "postgres:16-alpine"

// tables are truncated between tests, children first.
var tables = []string{"processed_messages", "drafts", "sermon_index", "sermons"}

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// TestDB wraps a GORM database connection for testing
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB connects to a migrated, empty test database. TEST_DB_DSN points
// it at an existing server; otherwise one postgres container is started per
// test binary. The test is skipped in -short mode or when Docker is missing.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	dsn := getEnv("TEST_DB_DSN", "")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		containerOnce.Do(func() {
			containerDSN, containerErr = startPostgres(context.Background())
		})
		if containerErr != nil {
			t.Fatalf("Failed to start postgres container: %v", containerErr)
		}
		dsn = containerDSN
	}

	db, err := storage.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := storage.Migrate(db.DB); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	testDB := &TestDB{DB: db.DB}
	testDB.Cleanup()

	t.Cleanup(func() {
		testDB.Cleanup()
		db.Close()
	})

	return testDB
}

func startPostgres(ctx context.Context) (string, error) {
	ctr, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("dailyqt_test"),
		tcpostgres.WithUsername("dailyqt_test"),
		tcpostgres.WithPassword("dailyqt_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to run container: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("failed to get connection string: %w", err)
	}
	return dsn, nil
}

// Cleanup truncates all tables
func (tdb *TestDB) Cleanup() {
	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
	}
}

// Transaction runs a function within a database transaction and rolls back after
func (tdb *TestDB) Transaction(t *testing.T, fn func(tx *gorm.DB)) {
	tx := tdb.DB.Begin()
	if tx.Error != nil {
		t.Fatalf("Failed to begin transaction: %v", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	fn(tx)

	tx.Rollback()
}

// WaitForCondition waits for a condition to be met or timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, interval time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatal("Condition not met within timeout")
}

// Logger returns a text logger writing to stdout
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
