package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/model"
)

// ModerationActionRepository is the audit trail. There is deliberately no
// update or delete; the database rejects both with triggers.
type ModerationActionRepository interface {
	Append(ctx context.Context, action *model.ModerationAction) error
	// History lists actions newest first.
	History(ctx context.Context, f model.ActionFilter) ([]*model.ModerationAction, error)
	CountByModerator(ctx context.Context, moderatorID string) (map[model.ActionType]int, error)
}

type moderationActionRepository struct {
	db sqlx.ExtContext
}

func NewModerationActionRepository(db sqlx.ExtContext) ModerationActionRepository {
	return &moderationActionRepository{db: db}
}

func (r *moderationActionRepository) Append(ctx context.Context, action *model.ModerationAction) error {
	query := `INSERT INTO moderation_actions (id, moderator_id, action_type, note_id, report_id, target_user_id, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		action.ID,
		action.ModeratorID,
		action.ActionType,
		action.NoteID,
		action.ReportID,
		action.TargetUserID,
		action.Reason,
		action.CreatedAt,
	)
	return err
}

func (r *moderationActionRepository) History(ctx context.Context, f model.ActionFilter) ([]*model.ModerationAction, error) {
	w := &where{}
	if f.ModeratorID != "" {
		w.add("moderator_id = ?", f.ModeratorID)
	}
	if f.ActionType != "" {
		w.add("action_type = ?", f.ActionType)
	}
	if f.NoteID != "" {
		w.add("note_id = ?", f.NoteID)
	}
	if f.ReportID != "" {
		w.add("report_id = ?", f.ReportID)
	}

	query, args, err := w.build(`SELECT * FROM moderation_actions`, ` ORDER BY created_at DESC, id DESC LIMIT ?`, limitOr(f.Limit, defaultListLimit))
	if err != nil {
		return nil, err
	}

	var actions []*model.ModerationAction
	err = sqlx.SelectContext(ctx, r.db, &actions, query, args...)
	return actions, err
}

func (r *moderationActionRepository) CountByModerator(ctx context.Context, moderatorID string) (map[model.ActionType]int, error) {
	var rows []struct {
		ActionType string `db:"action_type"`
		Count      int    `db:"count"`
	}
	query := `SELECT action_type, COUNT(*) AS count FROM moderation_actions WHERE moderator_id = $1 GROUP BY action_type`

	err := sqlx.SelectContext(ctx, r.db, &rows, query, moderatorID)
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ActionType]int, len(rows))
	for _, row := range rows {
		counts[model.ActionType(row.ActionType)] = row.Count
	}
	return counts, nil
}
