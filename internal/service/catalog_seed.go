package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/policy"
	"github.com/noteghar/noteghar/internal/repository"
	"gopkg.in/yaml.v3"
)

// CatalogSeed is the YAML layout for bulk catalog imports. Subjects refer
// to courses by code and to semesters by number.
type CatalogSeed struct {
	Courses   []model.NewCourse   `yaml:"courses"`
	Semesters []model.NewSemester `yaml:"semesters"`
	Subjects  []SeedSubject       `yaml:"subjects"`
}

type SeedSubject struct {
	Name        string `yaml:"name"`
	Code        string `yaml:"code"`
	Course      string `yaml:"course"`
	Semester    int    `yaml:"semester"`
	Description string `yaml:"description"`
}

// ImportResult counts the entries created; existing ones are skipped.
type ImportResult struct {
	Courses   int
	Semesters int
	Subjects  int
	Skipped   int
}

func ParseCatalogSeed(r io.Reader) (*CatalogSeed, error) {
	var seed CatalogSeed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&seed)
	if errors.Is(err, io.EOF) {
		return &seed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	return &seed, nil
}

// Import creates every course, semester and subject in seed that does not
// exist yet. Running it twice is harmless.
func (s *CatalogService) Import(ctx context.Context, actor *model.User, seed *CatalogSeed) (*ImportResult, error) {
	err := s.policy.Require(actor, policy.ManageCatalog)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}

	for _, in := range seed.Courses {
		_, err := s.CreateCourse(ctx, actor, in)
		if skip, err := s.skipExisting(result, err); err != nil {
			return result, fmt.Errorf("course %s: %w", in.Code, err)
		} else if !skip {
			result.Courses++
		}
	}

	for _, in := range seed.Semesters {
		_, err := s.CreateSemester(ctx, actor, in)
		if skip, err := s.skipExisting(result, err); err != nil {
			return result, fmt.Errorf("semester %d: %w", in.Number, err)
		} else if !skip {
			result.Semesters++
		}
	}

	courses, err := s.catalog.Courses(ctx)
	if err != nil {
		return result, err
	}
	courseIDs := make(map[string]string, len(courses))
	for _, c := range courses {
		courseIDs[c.Code] = c.ID
	}

	semesters, err := s.catalog.Semesters(ctx)
	if err != nil {
		return result, err
	}
	semesterIDs := make(map[int]string, len(semesters))
	for _, sem := range semesters {
		semesterIDs[sem.Number] = sem.ID
	}

	for _, in := range seed.Subjects {
		courseID, ok := courseIDs[strings.ToUpper(strings.TrimSpace(in.Course))]
		if !ok {
			return result, fmt.Errorf("subject %s: unknown course %q", in.Code, in.Course)
		}
		semesterID, ok := semesterIDs[in.Semester]
		if !ok {
			return result, fmt.Errorf("subject %s: unknown semester %d", in.Code, in.Semester)
		}

		_, err := s.CreateSubject(ctx, actor, model.NewSubject{
			Name:        in.Name,
			Code:        in.Code,
			CourseID:    courseID,
			SemesterID:  semesterID,
			Description: in.Description,
		})
		if skip, err := s.skipExisting(result, err); err != nil {
			return result, fmt.Errorf("subject %s: %w", in.Code, err)
		} else if !skip {
			result.Subjects++
		}
	}

	slog.Info("catalog imported",
		"courses", result.Courses,
		"semesters", result.Semesters,
		"subjects", result.Subjects,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *CatalogService) skipExisting(result *ImportResult, err error) (bool, error) {
	if errors.Is(err, repository.ErrConflict) {
		result.Skipped++
		return true, nil
	}
	return false, err
}
