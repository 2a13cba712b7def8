//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasklist/tasklist/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool, dbURL := newMigrationTestEnv(t)

	if err := Migrate(ctx, dbURL); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	for _, table := range []string{"users", "tasks", "schema_migrations"} {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_Idempotent(t *testing.T) {
	ctx, pool, dbURL := newMigrationTestEnv(t)

	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, dbURL); err != nil {
			t.Fatalf("Migrate run %d failed: %v", i+1, err)
		}
	}

	files, err := MigrationFiles(".up.sql")
	if err != nil {
		t.Fatalf("MigrationFiles failed: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != len(files) {
		t.Errorf("schema_migrations has %d rows, want %d", count, len(files))
	}
}

func TestIntegrationMigration_TasksTableSchema(t *testing.T) {
	ctx, pool, dbURL := newMigrationTestEnv(t)

	if err := Migrate(ctx, dbURL); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	expectedColumns := []string{"id", "owner_id", "title", "completed", "created_at", "updated_at"}
	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "tasks", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column tasks.%s should exist", col)
			}
		})
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	// Start from an empty database so Migrate does real work.
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS tasks",
		"DROP TABLE IF EXISTS users",
		"DROP TABLE IF EXISTS schema_migrations",
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("drop tables: %v", err)
		}
	}

	return ctx, pool, dbURL
}
