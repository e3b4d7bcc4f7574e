package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/model"
)

type RatingRepository interface {
	// Upsert inserts the rating or, when the user already rated the note,
	// overwrites stars and review in place. It returns the stored row.
	Upsert(ctx context.Context, rating *model.Rating) (*model.Rating, error)
	ByID(ctx context.Context, id string) (*model.Rating, error)
	ByNoteAndUser(ctx context.Context, noteID, userID string) (*model.Rating, error)
	// ByNote lists a note's ratings newest first with helpful counts.
	ByNote(ctx context.Context, noteID string) ([]*model.Rating, error)
	Summary(ctx context.Context, noteID string) (sum, count int, err error)
	// MarkHelpful records a vote and reports whether a new row was written.
	MarkHelpful(ctx context.Context, h *model.RatingHelpful) (bool, error)
	UnmarkHelpful(ctx context.Context, ratingID, userID string) error
}

type ratingRepository struct {
	db sqlx.ExtContext
}

func NewRatingRepository(db sqlx.ExtContext) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *model.Rating) (*model.Rating, error) {
	query := `INSERT INTO ratings (id, note_id, user_id, rating, review, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (note_id, user_id) DO UPDATE
	          SET rating = excluded.rating, review = excluded.review, updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		rating.ID,
		rating.NoteID,
		rating.UserID,
		rating.Rating,
		rating.Review,
		rating.CreatedAt,
		rating.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return r.ByNoteAndUser(ctx, rating.NoteID, rating.UserID)
}

func (r *ratingRepository) ByID(ctx context.Context, id string) (*model.Rating, error) {
	return r.get(ctx, `SELECT * FROM ratings WHERE id = $1`, id)
}

func (r *ratingRepository) ByNoteAndUser(ctx context.Context, noteID, userID string) (*model.Rating, error) {
	return r.get(ctx, `SELECT * FROM ratings WHERE note_id = $1 AND user_id = $2`, noteID, userID)
}

func (r *ratingRepository) get(ctx context.Context, query string, args ...any) (*model.Rating, error) {
	rating := &model.Rating{}

	err := sqlx.GetContext(ctx, r.db, rating, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRatingNotFound
	}
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func (r *ratingRepository) ByNote(ctx context.Context, noteID string) ([]*model.Rating, error) {
	var ratings []*model.Rating
	query := `SELECT r.*, COALESCE(h.helpful_count, 0) AS helpful_count
	          FROM ratings r
	          LEFT JOIN (SELECT rating_id, COUNT(*) AS helpful_count FROM rating_helpful GROUP BY rating_id) h
	            ON h.rating_id = r.id
	          WHERE r.note_id = $1
	          ORDER BY r.updated_at DESC, r.id DESC`

	err := sqlx.SelectContext(ctx, r.db, &ratings, query, noteID)
	return ratings, err
}

func (r *ratingRepository) Summary(ctx context.Context, noteID string) (int, int, error) {
	var row struct {
		Sum   int `db:"total"`
		Count int `db:"count"`
	}
	query := `SELECT COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count FROM ratings WHERE note_id = $1`

	err := sqlx.GetContext(ctx, r.db, &row, query, noteID)
	return row.Sum, row.Count, err
}

func (r *ratingRepository) MarkHelpful(ctx context.Context, h *model.RatingHelpful) (bool, error) {
	query := `INSERT INTO rating_helpful (id, rating_id, user_id, created_at) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (rating_id, user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, h.ID, h.RatingID, h.UserID, h.CreatedAt)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *ratingRepository) UnmarkHelpful(ctx context.Context, ratingID, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rating_helpful WHERE rating_id = $1 AND user_id = $2`, ratingID, userID)
	return err
}
