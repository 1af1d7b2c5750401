package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestRunSqliteMigrations(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, RunSqliteMigrations(db))
	assert.True(t, tableExists(t, db, "accounts"))
	assert.True(t, tableExists(t, db, "sessions"))

	// a second run is a no-op
	require.NoError(t, RunSqliteMigrations(db))

	v, dirty, err := Version(db, DriverSqlite)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db, DriverSqlite, Up))
	require.NoError(t, Migrate(db, DriverSqlite, Down))
	assert.False(t, tableExists(t, db, "accounts"))
	assert.False(t, tableExists(t, db, "sessions"))
}

func TestMigrate_Unsupported(t *testing.T) {
	db := openTestDB(t)

	assert.Error(t, Migrate(db, "mysql", Up))
	assert.Error(t, Migrate(db, DriverSqlite, Direction("sideways")))
}
