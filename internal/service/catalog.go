package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/policy"
	"github.com/noteghar/noteghar/internal/repository"
	"github.com/noteghar/noteghar/internal/validation"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type CatalogService struct {
	catalog repository.CatalogRepository
	policy  policy.Policy
}

func NewCatalogService(catalog repository.CatalogRepository, policy policy.Policy) *CatalogService {
	return &CatalogService{catalog: catalog, policy: policy}
}

func (s *CatalogService) CreateCourse(ctx context.Context, actor *model.User, in model.NewCourse) (*model.Course, error) {
	err := s.policy.Require(actor, policy.ManageCatalog)
	if err != nil {
		return nil, err
	}
	err = validation.Struct(in)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Code:        strings.ToUpper(strings.TrimSpace(in.Code)),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   time.Now().UTC(),
	}
	course.Slug = Slugify(course.Name)

	err = s.catalog.CreateCourse(ctx, course)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	slog.Info("course created", "course_id", course.ID, "code", course.Code)
	return course, nil
}

func (s *CatalogService) CreateSemester(ctx context.Context, actor *model.User, in model.NewSemester) (*model.Semester, error) {
	err := s.policy.Require(actor, policy.ManageCatalog)
	if err != nil {
		return nil, err
	}
	err = validation.Struct(in)
	if err != nil {
		return nil, err
	}

	semester := &model.Semester{
		ID:     uuid.New().String(),
		Name:   strings.TrimSpace(in.Name),
		Number: in.Number,
	}

	err = s.catalog.CreateSemester(ctx, semester)
	if err != nil {
		return nil, fmt.Errorf("failed to create semester: %w", err)
	}

	return semester, nil
}

func (s *CatalogService) CreateSubject(ctx context.Context, actor *model.User, in model.NewSubject) (*model.Subject, error) {
	err := s.policy.Require(actor, policy.ManageCatalog)
	if err != nil {
		return nil, err
	}
	err = validation.Struct(in)
	if err != nil {
		return nil, err
	}

	_, err = s.catalog.CourseByID(ctx, in.CourseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, validation.Field("course_id", "unknown course")
	}
	if err != nil {
		return nil, err
	}
	_, err = s.catalog.SemesterByID(ctx, in.SemesterID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, validation.Field("semester_id", "unknown semester")
	}
	if err != nil {
		return nil, err
	}

	subject := &model.Subject{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Code:        strings.ToUpper(strings.TrimSpace(in.Code)),
		CourseID:    in.CourseID,
		SemesterID:  in.SemesterID,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   time.Now().UTC(),
	}
	subject.Slug = Slugify(subject.Code + " " + subject.Name)

	err = s.catalog.CreateSubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}

	slog.Info("subject created", "subject_id", subject.ID, "code", subject.Code)
	return subject, nil
}

func (s *CatalogService) Courses(ctx context.Context) ([]*model.Course, error) {
	return s.catalog.Courses(ctx)
}

func (s *CatalogService) Semesters(ctx context.Context) ([]*model.Semester, error) {
	return s.catalog.Semesters(ctx)
}

func (s *CatalogService) Subjects(ctx context.Context, courseID, semesterID string) ([]*model.Subject, error) {
	return s.catalog.Subjects(ctx, courseID, semesterID)
}

// Slugify lowercases s, strips accents and joins words with hyphens
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
