package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/database"
)

// newTestDatabase connects to TEST_DATABASE_URL and migrates it. Tests are
// skipped when the variable is not set.
func newTestDatabase(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	truncate(t, db)
	return db
}

func truncate(t *testing.T, db *database.DB) {
	t.Helper()
	_, err := db.Exec(context.Background(), "TRUNCATE correction_submission_dates, correction_submissions")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
