package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/model"
)

const defaultListLimit = 50

type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	ByID(ctx context.Context, id string) (*model.Note, error)
	Search(ctx context.Context, f model.NoteFilter) ([]*model.Note, error)
	// Transition applies action only if the stored status still allows it.
	// A lost race surfaces as model.ErrInvalidTransition.
	Transition(ctx context.Context, id string, action model.ActionType, moderatorID string, at time.Time) (*model.Note, error)
	IncrementViews(ctx context.Context, id string) error
	// IncrementDownloads bumps the counter of an approved note. Missing and
	// unapproved notes both return ErrNoteNotFound.
	IncrementDownloads(ctx context.Context, id string) error
	// Delete removes the note and every row that depends on it.
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, uploadedBy string) (map[model.NoteStatus]int, error)
	CountPendingBefore(ctx context.Context, before time.Time) (int, error)
	TotalDownloads(ctx context.Context, uploadedBy string) (int64, error)
	Popular(ctx context.Context, limit int) ([]*model.Note, error)
}

type noteRepository struct {
	db sqlx.ExtContext
}

func NewNoteRepository(db sqlx.ExtContext) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *model.Note) error {
	query := `INSERT INTO notes (id, title, description, subject_id, course_id, semester_id, uploaded_by, tags,
	          file_name, file_ext, file_size, storage_path, status, download_count, view_count, approved_by, approved_at,
	          created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.Title,
		note.Description,
		note.SubjectID,
		note.CourseID,
		note.SemesterID,
		note.UploadedBy,
		note.Tags,
		note.FileName,
		note.FileExt,
		note.FileSize,
		note.StoragePath,
		note.Status,
		note.DownloadCount,
		note.ViewCount,
		note.ApprovedBy,
		note.ApprovedAt,
		note.CreatedAt,
		note.UpdatedAt,
	)

	return err
}

func (r *noteRepository) ByID(ctx context.Context, id string) (*model.Note, error) {
	note := &model.Note{}

	err := sqlx.GetContext(ctx, r.db, note, `SELECT * FROM notes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}

	return note, nil
}

func (r *noteRepository) Search(ctx context.Context, f model.NoteFilter) ([]*model.Note, error) {
	w := &where{}
	if f.Query != "" {
		pattern := likePattern(f.Query)
		w.add(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}
	if f.CourseID != "" {
		w.add("course_id = ?", f.CourseID)
	}
	if f.SemesterID != "" {
		w.add("semester_id = ?", f.SemesterID)
	}
	if f.SubjectID != "" {
		w.add("subject_id = ?", f.SubjectID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.UploadedBy != "" {
		w.add("uploaded_by = ?", f.UploadedBy)
	}

	query, args, err := w.build(`SELECT * FROM notes`, ` ORDER BY created_at DESC, id DESC LIMIT ?`, limitOr(f.Limit, defaultListLimit))
	if err != nil {
		return nil, err
	}

	var notes []*model.Note
	err = sqlx.SelectContext(ctx, r.db, &notes, query, args...)
	return notes, err
}

func (r *noteRepository) Transition(ctx context.Context, id string, action model.ActionType, moderatorID string, at time.Time) (*model.Note, error) {
	t, err := model.NoteTransition(action)
	if err != nil {
		return nil, err
	}

	// The approval stamp is written together with the status so it is set
	// exactly when the note is approved.
	var approvedBy *string
	var approvedAt *time.Time
	if t.To == model.NoteStatusApproved {
		approvedBy = &moderatorID
		approvedAt = &at
	}

	query, args, err := sqlx.In(`UPDATE notes SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
	                             WHERE id = ? AND status IN (?)`,
		t.To, approvedBy, approvedAt, at, id, t.From)
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

	note, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		_, err = model.NextNoteStatus(note.Status, action)
		if err == nil {
			err = model.ErrInvalidTransition
		}
		return nil, err
	}

	return note, nil
}

func (r *noteRepository) IncrementViews(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notes SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(result, ErrNoteNotFound)
}

func (r *noteRepository) IncrementDownloads(ctx context.Context, id string) error {
	query := `UPDATE notes SET download_count = download_count + 1 WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, model.NoteStatusApproved)
	if err != nil {
		return err
	}
	return expectRow(result, ErrNoteNotFound)
}

func (r *noteRepository) Delete(ctx context.Context, id string) error {
	// Foreign keys cascade as well; deleting explicitly keeps the behaviour
	// independent of the SQLite foreign_keys pragma.
	dependents := []string{
		`DELETE FROM rating_helpful WHERE rating_id IN (SELECT id FROM ratings WHERE note_id = $1)`,
		`DELETE FROM ratings WHERE note_id = $1`,
		`DELETE FROM downloads WHERE note_id = $1`,
		`DELETE FROM reports WHERE note_id = $1`,
	}
	for _, query := range dependents {
		_, err := r.db.ExecContext(ctx, query, id)
		if err != nil {
			return err
		}
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(result, ErrNoteNotFound)
}

func (r *noteRepository) CountByStatus(ctx context.Context, uploadedBy string) (map[model.NoteStatus]int, error) {
	w := &where{}
	if uploadedBy != "" {
		w.add("uploaded_by = ?", uploadedBy)
	}

	query, args, err := w.build(`SELECT status, COUNT(*) AS count FROM notes`, ` GROUP BY status`)
	if err != nil {
		return nil, err
	}

	var rows []model.StatusCount
	err = sqlx.SelectContext(ctx, r.db, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	counts := make(map[model.NoteStatus]int, len(rows))
	for _, row := range rows {
		counts[model.NoteStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *noteRepository) CountPendingBefore(ctx context.Context, before time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notes WHERE status = $1 AND created_at < $2`

	err := sqlx.GetContext(ctx, r.db, &count, query, model.NoteStatusPending, before)
	return count, err
}

func (r *noteRepository) TotalDownloads(ctx context.Context, uploadedBy string) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(download_count), 0) FROM notes WHERE uploaded_by = $1`

	err := sqlx.GetContext(ctx, r.db, &total, query, uploadedBy)
	return total, err
}

func (r *noteRepository) Popular(ctx context.Context, limit int) ([]*model.Note, error) {
	var notes []*model.Note
	query := `SELECT * FROM notes WHERE status = $1 ORDER BY download_count DESC, created_at DESC LIMIT $2`

	err := sqlx.SelectContext(ctx, r.db, &notes, query, model.NoteStatusApproved, limitOr(limit, defaultListLimit))
	return notes, err
}
