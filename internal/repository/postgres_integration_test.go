//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/db"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// openPostgres starts a throwaway PostgreSQL container and migrates it.
func openPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("noteghar"),
		postgres.WithUsername("noteghar"),
		postgres.WithPassword("noteghar"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Init("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	require.NoError(t, db.RunMigrations(ctx, conn.DB, "pgx"))
	return conn
}

func TestPostgres(t *testing.T) {
	conn := openPostgres(t)

	t.Run("concurrent approvals", func(t *testing.T) {
		f := fixtureOn(t, conn)
		owner := f.user(t, "pg-owner-1", model.RoleStudent)
		note := f.note(t, owner, "Race", model.NoteStatusPending)

		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := range 8 {
			mod := f.user(t, fmt.Sprintf("pg-mod-%d", i), model.RoleModerator)
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.store.Notes.Transition(context.Background(), note.ID, model.ActionApprove, mod.ID, time.Now().UTC())
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, model.ErrInvalidTransition):
					conflicts.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, wins.Load())
		assert.EqualValues(t, 7, conflicts.Load())

		got, err := f.store.Notes.ByID(context.Background(), note.ID)
		require.NoError(t, err)
		assert.Equal(t, model.NoteStatusApproved, got.Status)
		assert.True(t, got.ApprovalConsistent())
	})

	t.Run("concurrent downloads", func(t *testing.T) {
		f := fixtureOn(t, conn)
		owner := f.user(t, "pg-owner-2", model.RoleStudent)
		note := f.note(t, owner, "Counters", model.NoteStatusApproved)

		var wg sync.WaitGroup
		for range 40 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, f.store.Notes.IncrementDownloads(context.Background(), note.ID))
			}()
		}
		wg.Wait()

		got, err := f.store.Notes.ByID(context.Background(), note.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 40, got.DownloadCount)
	})

	t.Run("duplicate pending report", func(t *testing.T) {
		ctx := context.Background()
		f := fixtureOn(t, conn)
		owner := f.user(t, "pg-owner-3", model.RoleStudent)
		reporter := f.user(t, "pg-reporter", model.RoleStudent)
		note := f.note(t, owner, "Copied", model.NoteStatusApproved)

		require.NoError(t, f.store.Reports.Create(ctx, newReport(note.ID, reporter.ID)))
		err := f.store.Reports.Create(ctx, newReport(note.ID, reporter.ID))
		assert.ErrorIs(t, err, ErrDuplicateReport)
	})

	t.Run("rollback", func(t *testing.T) {
		ctx := context.Background()
		f := fixtureOn(t, conn)
		owner := f.user(t, "pg-owner-4", model.RoleStudent)
		mod := f.user(t, "pg-mod-rollback", model.RoleModerator)
		note := f.note(t, owner, "Rollback", model.NoteStatusPending)

		boom := errors.New("boom")
		err := f.store.WithTx(ctx, func(tx *Store) error {
			_, err := tx.Notes.Transition(ctx, note.ID, model.ActionApprove, mod.ID, time.Now().UTC())
			require.NoError(t, err)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := f.store.Notes.ByID(ctx, note.ID)
		require.NoError(t, err)
		assert.Equal(t, model.NoteStatusPending, got.Status)
	})
}
