package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/model"
)

// DownloadRepository is append-only: downloads are facts, never edited.
type DownloadRepository interface {
	Create(ctx context.Context, d *model.Download) error
	ByUser(ctx context.Context, userID string, limit int) ([]*model.Download, error)
	CountByNote(ctx context.Context, noteID string) (int, error)
}

type downloadRepository struct {
	db sqlx.ExtContext
}

func NewDownloadRepository(db sqlx.ExtContext) DownloadRepository {
	return &downloadRepository{db: db}
}

func (r *downloadRepository) Create(ctx context.Context, d *model.Download) error {
	query := `INSERT INTO downloads (id, note_id, user_id, ip_address, downloaded_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, d.ID, d.NoteID, d.UserID, d.IPAddress, d.DownloadedAt)
	return err
}

func (r *downloadRepository) ByUser(ctx context.Context, userID string, limit int) ([]*model.Download, error) {
	var downloads []*model.Download
	query := `SELECT * FROM downloads WHERE user_id = $1 ORDER BY downloaded_at DESC LIMIT $2`

	err := sqlx.SelectContext(ctx, r.db, &downloads, query, userID, limitOr(limit, defaultListLimit))
	return downloads, err
}

func (r *downloadRepository) CountByNote(ctx context.Context, noteID string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM downloads WHERE note_id = $1`, noteID)
	return count, err
}
