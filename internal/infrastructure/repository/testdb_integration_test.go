package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/db/migrations"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// openTestDB migrates the database named by TEST_DATABASE_URL and empties
// every table the repositories touch.
func openTestDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	runner, err := migrations.New(dsn, nil)
	if err != nil {
		t.Fatalf("configure migrations: %v", err)
	}
	if err := runner.Up(context.Background()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}

	cleanup := `TRUNCATE import_jobs, user_account_associations, enrollments, logins, communication_channels, users, settings`
	if err := db.Exec(cleanup).Error; err != nil {
		t.Fatalf("failed to cleanup tables: %v", err)
	}
	return db, dsn
}

func openTestPool(t *testing.T, dsn string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
