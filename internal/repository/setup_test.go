package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/epeers/debtimport/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// getTestPool connects to PG_URL and applies schema.sql. Tests are skipped
// when PG_URL is unset or in short mode.
func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		t.Skip("PG_URL environment variable not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, pgURL)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	t.Cleanup(db.Close)

	schema, err := os.ReadFile("../../schema.sql")
	if err != nil {
		t.Fatalf("failed to read schema file: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return db.Pool
}

func cleanupTestDebtor(pool *pgxpool.Pool, id string) {
	pool.Exec(context.Background(), `DELETE FROM debtors WHERE id = $1`, id)
}

func cleanupTestEntity(pool *pgxpool.Pool, code string) {
	pool.Exec(context.Background(), `DELETE FROM entities WHERE id = $1`, code)
}
