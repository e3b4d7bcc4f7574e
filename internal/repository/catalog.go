package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/model"
)

// CatalogRepository stores the course, semester and subject hierarchy.
type CatalogRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	CreateSemester(ctx context.Context, s *model.Semester) error
	CreateSubject(ctx context.Context, s *model.Subject) error
	CourseByID(ctx context.Context, id string) (*model.Course, error)
	SemesterByID(ctx context.Context, id string) (*model.Semester, error)
	SubjectByID(ctx context.Context, id string) (*model.Subject, error)
	Courses(ctx context.Context) ([]*model.Course, error)
	Semesters(ctx context.Context) ([]*model.Semester, error)
	// Subjects lists subjects, optionally narrowed to a course and/or semester.
	Subjects(ctx context.Context, courseID, semesterID string) ([]*model.Subject, error)
}

type catalogRepository struct {
	db sqlx.ExtContext
}

func NewCatalogRepository(db sqlx.ExtContext) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateCourse(ctx context.Context, c *model.Course) error {
	query := `INSERT INTO courses (id, name, code, description, slug, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Code, c.Description, c.Slug, c.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCatalog
	}
	return err
}

func (r *catalogRepository) CreateSemester(ctx context.Context, s *model.Semester) error {
	query := `INSERT INTO semesters (id, name, number) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Number)
	if isUniqueViolation(err) {
		return ErrDuplicateCatalog
	}
	return err
}

func (r *catalogRepository) CreateSubject(ctx context.Context, s *model.Subject) error {
	query := `INSERT INTO subjects (id, name, code, course_id, semester_id, description, slug, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Code, s.CourseID, s.SemesterID, s.Description, s.Slug, s.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCatalog
	}
	return err
}

func (r *catalogRepository) CourseByID(ctx context.Context, id string) (*model.Course, error) {
	course := &model.Course{}

	err := sqlx.GetContext(ctx, r.db, course, `SELECT * FROM courses WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (r *catalogRepository) SemesterByID(ctx context.Context, id string) (*model.Semester, error) {
	semester := &model.Semester{}

	err := sqlx.GetContext(ctx, r.db, semester, `SELECT * FROM semesters WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSemesterNotFound
	}
	if err != nil {
		return nil, err
	}
	return semester, nil
}

func (r *catalogRepository) SubjectByID(ctx context.Context, id string) (*model.Subject, error) {
	subject := &model.Subject{}

	err := sqlx.GetContext(ctx, r.db, subject, `SELECT * FROM subjects WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return subject, nil
}

func (r *catalogRepository) Courses(ctx context.Context) ([]*model.Course, error) {
	var courses []*model.Course
	err := sqlx.SelectContext(ctx, r.db, &courses, `SELECT * FROM courses ORDER BY name`)
	return courses, err
}

func (r *catalogRepository) Semesters(ctx context.Context) ([]*model.Semester, error) {
	var semesters []*model.Semester
	err := sqlx.SelectContext(ctx, r.db, &semesters, `SELECT * FROM semesters ORDER BY number`)
	return semesters, err
}

func (r *catalogRepository) Subjects(ctx context.Context, courseID, semesterID string) ([]*model.Subject, error) {
	w := &where{}
	if courseID != "" {
		w.add("course_id = ?", courseID)
	}
	if semesterID != "" {
		w.add("semester_id = ?", semesterID)
	}

	query, args, err := w.build(`SELECT * FROM subjects`, ` ORDER BY code, name`)
	if err != nil {
		return nil, err
	}

	var subjects []*model.Subject
	err = sqlx.SelectContext(ctx, r.db, &subjects, query, args...)
	return subjects, err
}
