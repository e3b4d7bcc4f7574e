package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is the root of every missing-row error.
	ErrNotFound = errors.New("not found")
	// ErrConflict is the root of every uniqueness violation.
	ErrConflict = errors.New("conflict")

	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCourseNotFound   = fmt.Errorf("course %w", ErrNotFound)
	ErrSemesterNotFound = fmt.Errorf("semester %w", ErrNotFound)
	ErrSubjectNotFound  = fmt.Errorf("subject %w", ErrNotFound)
	ErrNoteNotFound     = fmt.Errorf("note %w", ErrNotFound)
	ErrRatingNotFound   = fmt.Errorf("rating %w", ErrNotFound)
	ErrReportNotFound   = fmt.Errorf("report %w", ErrNotFound)

	ErrDuplicateUsername = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrDuplicateEmail    = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrDuplicateReport   = fmt.Errorf("%w: a report on this note is already pending", ErrConflict)
	ErrDuplicateCatalog  = fmt.Errorf("%w: catalog entry already exists", ErrConflict)
)

// isUniqueViolation works for both SQLite and PostgreSQL
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}
