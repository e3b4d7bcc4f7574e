package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/noteghar/noteghar/internal/db/dbtest"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *Store
	course   *model.Course
	semester *model.Semester
	subject  *model.Subject
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return fixtureOn(t, dbtest.Open(t))
}

// fixtureSeq keeps catalog codes unique when fixtures share a database.
var fixtureSeq atomic.Int32

// fixtureOn seeds one course, semester and subject into a migrated database.
func fixtureOn(t *testing.T, conn *sqlx.DB) *fixture {
	t.Helper()
	ctx := context.Background()
	store := NewStore(conn)
	now := time.Now().UTC()

	seq := fixtureSeq.Add(1)
	code := fmt.Sprintf("BIT%d", seq)

	f := &fixture{
		store:    store,
		course:   &model.Course{ID: uuid.NewString(), Name: "Bachelor of IT " + code, Code: code, Slug: strings.ToLower(code), CreatedAt: now},
		semester: &model.Semester{ID: uuid.NewString(), Name: fmt.Sprintf("Semester %d", seq), Number: int(seq)},
	}
	f.subject = &model.Subject{
		ID: uuid.NewString(), Name: "Programming in C", Code: code + "-101",
		CourseID: f.course.ID, SemesterID: f.semester.ID, Slug: strings.ToLower(code) + "-programming-in-c", CreatedAt: now,
	}

	require.NoError(t, store.Catalog.CreateCourse(ctx, f.course))
	require.NoError(t, store.Catalog.CreateSemester(ctx, f.semester))
	require.NoError(t, store.Catalog.CreateSubject(ctx, f.subject))
	return f
}

func (f *fixture) user(t *testing.T, username, role string) *model.User {
	t.Helper()
	u := &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) note(t *testing.T, owner *model.User, title string, status model.NoteStatus) *model.Note {
	t.Helper()
	now := time.Now().UTC()
	n := &model.Note{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "Unit notes for " + title,
		SubjectID:   f.subject.ID,
		CourseID:    f.course.ID,
		SemesterID:  f.semester.ID,
		UploadedBy:  owner.ID,
		Tags:        "c, pointers",
		FileName:    "notes.pdf",
		FileExt:     "pdf",
		FileSize:    2048,
		StoragePath: "notes/" + uuid.NewString() + ".pdf",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == model.NoteStatusApproved {
		n.ApprovedBy = &owner.ID
		n.ApprovedAt = &now
	}
	require.NoError(t, f.store.Notes.Create(context.Background(), n))
	return n
}
