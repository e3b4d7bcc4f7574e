// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/db"
	"github.com/stretchr/testify/require"
)

// Open returns a migrated SQLite database in a temp directory. It is closed
// when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "noteghar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	err = db.RunMigrations(context.Background(), conn.DB, "sqlite")
	require.NoError(t, err)

	return conn
}
