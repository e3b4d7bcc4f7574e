package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/model"
)

type ReportRepository interface {
	// Create returns ErrDuplicateReport when the reporter already has a
	// pending report on the note.
	Create(ctx context.Context, report *model.Report) error
	ByID(ctx context.Context, id string) (*model.Report, error)
	HasPending(ctx context.Context, noteID, reporterID string) (bool, error)
	// List returns reports newest first, optionally filtered by status and reason.
	List(ctx context.Context, status model.ReportStatus, reason model.ReportReason, limit int) ([]*model.Report, error)
	// Transition closes the report with the reviewer stamp if its stored
	// status still allows action.
	Transition(ctx context.Context, id string, action model.ActionType, reviewerID, notes string, at time.Time) (*model.Report, error)
	CountByStatus(ctx context.Context) (map[model.ReportStatus]int, error)
}

type reportRepository struct {
	db sqlx.ExtContext
}

func NewReportRepository(db sqlx.ExtContext) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	query := `INSERT INTO reports (id, note_id, reported_by, reason, description, status, moderator_notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.NoteID,
		report.ReportedBy,
		report.Reason,
		report.Description,
		report.Status,
		report.ModeratorNotes,
		report.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateReport
	}
	return err
}

func (r *reportRepository) ByID(ctx context.Context, id string) (*model.Report, error) {
	report := &model.Report{}

	err := sqlx.GetContext(ctx, r.db, report, `SELECT * FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *reportRepository) HasPending(ctx context.Context, noteID, reporterID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM reports WHERE note_id = $1 AND reported_by = $2 AND status = $3`

	err := sqlx.GetContext(ctx, r.db, &count, query, noteID, reporterID, model.ReportStatusPending)
	return count > 0, err
}

func (r *reportRepository) List(ctx context.Context, status model.ReportStatus, reason model.ReportReason, limit int) ([]*model.Report, error) {
	w := &where{}
	if status != "" {
		w.add("status = ?", status)
	}
	if reason != "" {
		w.add("reason = ?", reason)
	}

	query, args, err := w.build(`SELECT * FROM reports`, ` ORDER BY created_at DESC, id DESC LIMIT ?`, limitOr(limit, defaultListLimit))
	if err != nil {
		return nil, err
	}

	var reports []*model.Report
	err = sqlx.SelectContext(ctx, r.db, &reports, query, args...)
	return reports, err
}

func (r *reportRepository) Transition(ctx context.Context, id string, action model.ActionType, reviewerID, notes string, at time.Time) (*model.Report, error) {
	t, err := model.ReportTransition(action)
	if err != nil {
		return nil, err
	}

	query, args, err := sqlx.In(`UPDATE reports SET status = ?, reviewed_by = ?, reviewed_at = ?, moderator_notes = ?
	                             WHERE id = ? AND status IN (?)`,
		t.To, reviewerID, at, notes, id, t.From)
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	report, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		_, err = model.NextReportStatus(report.Status, action)
		if err == nil {
			err = model.ErrInvalidTransition
		}
		return nil, err
	}

	return report, nil
}

func (r *reportRepository) CountByStatus(ctx context.Context) (map[model.ReportStatus]int, error) {
	var rows []model.StatusCount
	err := sqlx.SelectContext(ctx, r.db, &rows, `SELECT status, COUNT(*) AS count FROM reports GROUP BY status`)
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ReportStatus]int, len(rows))
	for _, row := range rows {
		counts[model.ReportStatus(row.Status)] = row.Count
	}
	return counts, nil
}
