// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/db"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// New returns a fresh database with every migration applied. A single connection keeps the
// in-memory database alive and shared between the test and the code under test.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "failed to open in-memory database")
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "failed to create migrate driver instance")
	require.NoError(t, db.Migrate(driver, "sqlite3"))

	return database
}
