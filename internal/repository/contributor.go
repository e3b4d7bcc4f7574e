package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/model"
)

type ContributorRepository interface {
	// Top ranks students by approved notes, most first, ties by username.
	// Students without an approved note are left out.
	Top(ctx context.Context, limit int) ([]*model.Contributor, error)
}

type contributorRepository struct {
	db sqlx.ExtContext
}

func NewContributorRepository(db sqlx.ExtContext) ContributorRepository {
	return &contributorRepository{db: db}
}

func (r *contributorRepository) Top(ctx context.Context, limit int) ([]*model.Contributor, error) {
	var contributors []*model.Contributor
	query := `SELECT u.id AS user_id, u.username, COUNT(n.id) AS approved_count
	          FROM users u
	          JOIN notes n ON n.uploaded_by = u.id AND n.status = $1
	          WHERE u.role = $2
	          GROUP BY u.id, u.username
	          ORDER BY approved_count DESC, u.username ASC
	          LIMIT $3`

	err := sqlx.SelectContext(ctx, r.db, &contributors, query, model.NoteStatusApproved, model.RoleStudent, limitOr(limit, 5))
	return contributors, err
}
