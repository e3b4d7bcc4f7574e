package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUpDown(t *testing.T) {
	ctx := context.Background()
	conn, err := Init("sqlite", filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	defer Close(conn)

	require.NoError(t, RunMigrations(ctx, conn.DB, "sqlite"))

	var tables int
	err = conn.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('notes', 'reports', 'moderation_actions')`)
	require.NoError(t, err)
	assert.Equal(t, 3, tables)

	var fk int
	require.NoError(t, conn.Get(&fk, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, fk)

	require.NoError(t, MigrateDown(ctx, conn.DB, "sqlite"))
	err = conn.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'notes'`)
	require.NoError(t, err)
	assert.Equal(t, 0, tables)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := newProvider(nil, "mysql")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("a.db?mode=rwc"))
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(100)", sqliteDSN("a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(100)"))
}
