package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Store groups the repositories over one database handle. Inside WithTx every
// repository of the transactional Store shares the same *sqlx.Tx.
type Store struct {
	db *sqlx.DB
	tx *sqlx.Tx

	Users        UserRepository
	Catalog      CatalogRepository
	Notes        NoteRepository
	Downloads    DownloadRepository
	Ratings      RatingRepository
	Reports      ReportRepository
	Actions      ModerationActionRepository
	Contributors ContributorRepository
}

func NewStore(db *sqlx.DB) *Store {
	s := &Store{db: db}
	s.bind(db)
	return s
}

func (s *Store) bind(ext sqlx.ExtContext) {
	s.Users = NewUserRepository(ext)
	s.Catalog = NewCatalogRepository(ext)
	s.Notes = NewNoteRepository(ext)
	s.Downloads = NewDownloadRepository(ext)
	s.Ratings = NewRatingRepository(ext)
	s.Reports = NewReportRepository(ext)
	s.Actions = NewModerationActionRepository(ext)
	s.Contributors = NewContributorRepository(ext)
}

// WithTx runs fn in a transaction and commits when it returns nil. Calls
// nested inside an open transaction join it. Only the Store passed to fn may
// be used until fn returns.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &Store{db: s.db, tx: tx}
	txStore.bind(tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	err = fn(txStore)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// where accumulates AND-ed conditions written with ? placeholders.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// build expands slice arguments and rewrites ? into $n placeholders.
func (w *where) build(prefix, suffix string, extra ...any) (string, []any, error) {
	query, args, err := sqlx.In(prefix+w.String()+suffix, append(w.args, extra...)...)
	if err != nil {
		return "", nil, err
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args, nil
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// maxListLimit bounds every list query regardless of what the caller asks for.
const maxListLimit = 100

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, maxListLimit)
}
