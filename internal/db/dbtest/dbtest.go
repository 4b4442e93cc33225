// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pennypet/server/internal/db"
)

// Open returns a fresh, fully migrated SQLite database that lives in t.TempDir().
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	connection := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init(context.Background(), db.DriverSQLite, connection)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	err = db.RunMigrations(database.DB, db.DriverSQLite)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return database
}

// CreateUser inserts a bare user row with a profile and returns its id.
func CreateUser(t testing.TB, database *sqlx.DB) string {
	t.Helper()

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := database.Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		id, id+"@example.com", "x", now)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err = database.Exec(`INSERT INTO profiles (id, user_id, name, coins, current_pet, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 'cat', $4, $4)`, uuid.New().String(), id, "Tester", now)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	return id
}
