package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/policy"
	"github.com/noteghar/noteghar/internal/repository"
	"github.com/noteghar/noteghar/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit(t *testing.T) {
	e := newTestEnv(t)

	note, err := e.notes.Submit(e.ctx, e.student, e.draft("Boolean Algebra"), pdf("Boolean Algebra.PDF", 2048))
	require.NoError(t, err)

	assert.Equal(t, model.NoteStatusPending, note.Status)
	assert.Zero(t, note.DownloadCount)
	assert.Zero(t, note.ViewCount)
	assert.Nil(t, note.ApprovedBy)
	assert.Equal(t, "pdf", note.FileExt)
	assert.Equal(t, "Boolean Algebra.PDF", note.FileName)
	assert.Equal(t, "logic, gates", note.Tags)
	assert.True(t, e.files.Has(note.StoragePath))

	stored, err := e.store.Notes.ByID(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, e.student.ID, stored.UploadedBy)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name   string
		draft  func() model.NoteDraft
		upload Upload
		field  string
	}{
		{
			name:   "extension not allowed",
			draft:  func() model.NoteDraft { return e.draft("Exe") },
			upload: pdf("virus.exe", 100),
			field:  "file",
		},
		{
			name:   "file over 10 MiB",
			draft:  func() model.NoteDraft { return e.draft("Huge") },
			upload: pdf("huge.pdf", 10<<20+1),
			field:  "file",
		},
		{
			name: "missing title",
			draft: func() model.NoteDraft {
				d := e.draft("")
				return d
			},
			upload: pdf("a.pdf", 100),
			field:  "title",
		},
		{
			name: "subject from another course",
			draft: func() model.NoteDraft {
				d := e.draft("Mismatch")
				d.CourseID = uuid.NewString()
				return d
			},
			upload: pdf("a.pdf", 100),
			field:  "subject_id",
		},
		{
			name: "unknown subject",
			draft: func() model.NoteDraft {
				d := e.draft("Unknown")
				d.SubjectID = uuid.NewString()
				return d
			},
			upload: pdf("a.pdf", 100),
			field:  "subject_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.notes.Submit(e.ctx, e.student, tt.draft(), tt.upload)

			var vErr *validation.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Contains(t, vErr.FieldMap(), tt.field)
		})
	}

	assert.Zero(t, e.files.Len(), "nothing stored for rejected uploads")

	_, err := e.notes.Submit(e.ctx, nil, e.draft("Anon"), pdf("a.pdf", 100))
	assert.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestApproveTwiceFails(t *testing.T) {
	e := newTestEnv(t)
	note := e.submit(t, e.student, "Flip Flops")
	other := e.user(t, "second_mod", model.RoleModerator)

	approved, err := e.notes.Approve(e.ctx, e.moderator, note.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoteStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	_, err = e.notes.Approve(e.ctx, other, note.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = e.notes.Reject(e.ctx, other, note.ID, "too late")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	stored, err := e.store.Notes.ByID(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoteStatusApproved, stored.Status)
	assert.Equal(t, e.moderator.ID, *stored.ApprovedBy, "first approval is kept")
	assert.True(t, stored.ApprovalConsistent())

	actions := e.actionsFor(t, model.ActionFilter{NoteID: note.ID})
	require.Len(t, actions, 1)
	assert.Equal(t, model.ActionApprove, actions[0].ActionType)
	assert.Equal(t, ApproveReason, actions[0].Reason)
	assert.Equal(t, e.student.ID, *actions[0].TargetUserID)

	notices := e.notifier.all()
	require.Len(t, notices, 1)
	assert.Equal(t, model.ActionApprove, notices[0].action)
	assert.Equal(t, e.student.ID, notices[0].userID)
}

func TestConcurrentApprovalsOnlyOneWins(t *testing.T) {
	e := newTestEnv(t)
	note := e.submit(t, e.student, "Race")

	const moderators = 10
	var wg sync.WaitGroup
	errs := make([]error, moderators)
	for i := range moderators {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.notes.Approve(e.ctx, e.moderator, note.ID)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, e.actionsFor(t, model.ActionFilter{NoteID: note.ID}), 1)
}

func TestRejectRecordsReason(t *testing.T) {
	e := newTestEnv(t)
	blurry := e.submit(t, e.student, "Blurry")
	plain := e.submit(t, e.student, "Plain")

	rejected, err := e.notes.Reject(e.ctx, e.moderator, blurry.ID, "  scan unreadable ")
	require.NoError(t, err)
	assert.Equal(t, model.NoteStatusRejected, rejected.Status)
	assert.Nil(t, rejected.ApprovedBy)

	_, err = e.notes.Reject(e.ctx, e.moderator, plain.ID, "")
	require.NoError(t, err)

	actions := e.actionsFor(t, model.ActionFilter{ActionType: model.ActionReject})
	require.Len(t, actions, 2)
	reasons := []string{actions[0].Reason, actions[1].Reason}
	assert.ElementsMatch(t, []string{"scan unreadable", DefaultRejectReason}, reasons)
}

func TestStudentCannotModerate(t *testing.T) {
	e := newTestEnv(t)
	note := e.submit(t, e.student, "Self approval")

	_, err := e.notes.Approve(e.ctx, e.student, note.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	_, err = e.notes.Reject(e.ctx, nil, note.ID, "")
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	stored, err := e.store.Notes.ByID(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoteStatusPending, stored.Status)
	assert.Empty(t, e.actionsFor(t, model.ActionFilter{NoteID: note.ID}))
}

func TestApproveMissingNote(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.notes.Approve(e.ctx, e.admin, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)
}

func TestConcurrentDownloadsAreCounted(t *testing.T) {
	e := newTestEnv(t)
	note := e.approved(t, e.student, "Karnaugh Maps")
	reader := e.user(t, "reader", model.RoleStudent)

	const downloads = 100
	var wg sync.WaitGroup
	errs := make(chan error, downloads)
	for range downloads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.notes.RecordDownload(e.ctx, reader, note.ID, "10.0.0.1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := e.store.Notes.ByID(e.ctx, note.ID)
	require.NoError(t, err)
	assert.EqualValues(t, downloads, stored.DownloadCount)

	rows, err := e.store.Downloads.CountByNote(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, downloads, rows)
}

func TestDownloadRequiresApprovedNote(t *testing.T) {
	e := newTestEnv(t)
	pending := e.submit(t, e.student, "Pending")

	_, err := e.notes.RecordDownload(e.ctx, e.student, pending.ID, "")
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)

	_, err = e.notes.Download(e.ctx, e.student, pending.ID, "")
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)

	_, err = e.notes.RecordDownload(e.ctx, e.student, uuid.NewString(), "")
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)

	count, err := e.store.Downloads.CountByNote(e.ctx, pending.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDownloadReturnsLink(t *testing.T) {
	e := newTestEnv(t)
	note := e.approved(t, e.student, "Counters")

	url, err := e.notes.Download(e.ctx, e.moderator, note.ID, "192.168.1.2")
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/"+note.StoragePath+"?filename=Counters.pdf", url)

	downloads, err := e.store.Downloads.ByUser(e.ctx, e.moderator.ID, 10)
	require.NoError(t, err)
	require.Len(t, downloads, 1)
	require.NotNil(t, downloads[0].IPAddress)
	assert.Equal(t, "192.168.1.2", *downloads[0].IPAddress)

	_, err = e.notes.Download(e.ctx, nil, note.ID, "")
	assert.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestRateAndAverage(t *testing.T) {
	e := newTestEnv(t)
	note := e.approved(t, e.student, "Multiplexers")

	avg, count, err := e.notes.AverageRating(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, count)

	for i, stars := range []int{4, 5, 3} {
		u := e.user(t, uniqueName("rater"), model.RoleStudent)
		_, err := e.notes.Rate(e.ctx, u, note.ID, stars, "")
		require.NoError(t, err, "rater %d", i)
	}

	avg, count, err = e.notes.AverageRating(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 3, count)

	first, err := e.notes.Rate(e.ctx, e.moderator, note.ID, 1, "missing chapter 3")
	require.NoError(t, err)
	second, err := e.notes.Rate(e.ctx, e.moderator, note.ID, 2, "chapter 3 is there after all")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	avg, count, err = e.notes.AverageRating(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 3.5, avg)
}

func TestRateValidation(t *testing.T) {
	e := newTestEnv(t)
	note := e.approved(t, e.student, "Encoders")
	pending := e.submit(t, e.student, "Decoders")

	for _, stars := range []int{0, 6, -1} {
		_, err := e.notes.Rate(e.ctx, e.moderator, note.ID, stars, "")
		assert.True(t, validation.IsValidationError(err), "stars %d", stars)
	}

	_, err := e.notes.Rate(e.ctx, e.moderator, pending.ID, 5, "")
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)

	_, err = e.notes.Rate(e.ctx, nil, note.ID, 5, "")
	assert.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestHelpfulVotes(t *testing.T) {
	e := newTestEnv(t)
	note := e.approved(t, e.student, "Adders")
	reader := e.user(t, "reader", model.RoleStudent)

	rating, err := e.notes.Rate(e.ctx, reader, note.ID, 5, "clear diagrams")
	require.NoError(t, err)

	_, err = e.notes.MarkHelpful(e.ctx, reader, rating.ID)
	assert.True(t, validation.IsValidationError(err), "own review")

	created, err := e.notes.MarkHelpful(e.ctx, e.student, rating.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = e.notes.MarkHelpful(e.ctx, e.student, rating.ID)
	require.NoError(t, err)
	assert.False(t, created)

	ratings, err := e.notes.Ratings(e.ctx, nil, note.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 1, ratings[0].HelpfulCount)

	require.NoError(t, e.notes.UnmarkHelpful(e.ctx, e.student, rating.ID))
	ratings, err = e.notes.Ratings(e.ctx, nil, note.ID)
	require.NoError(t, err)
	assert.Zero(t, ratings[0].HelpfulCount)

	_, err = e.notes.MarkHelpful(e.ctx, e.student, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrRatingNotFound)
}

func TestGetVisibility(t *testing.T) {
	e := newTestEnv(t)
	pending := e.submit(t, e.student, "Draft")
	stranger := e.user(t, "stranger", model.RoleStudent)

	_, err := e.notes.Get(e.ctx, nil, pending.ID)
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)
	_, err = e.notes.Get(e.ctx, stranger, pending.ID)
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)

	detail, err := e.notes.Get(e.ctx, e.student, pending.ID)
	require.NoError(t, err)
	assert.Zero(t, detail.Note.ViewCount, "unapproved views are not counted")

	_, err = e.notes.Get(e.ctx, e.moderator, pending.ID)
	require.NoError(t, err)

	note := e.approved(t, e.student, "Published")
	_, err = e.notes.Rate(e.ctx, stranger, note.ID, 4, "")
	require.NoError(t, err)

	detail, err = e.notes.Get(e.ctx, nil, note.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, detail.Note.ViewCount)
	assert.Equal(t, 4.0, detail.AverageRating)
	assert.Nil(t, detail.MyRating)
	assert.Equal(t, "<p>Notes on Published</p>\n", detail.DescriptionHTML)

	detail, err = e.notes.Get(e.ctx, stranger, note.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, detail.Note.ViewCount)
	require.NotNil(t, detail.MyRating)
	assert.Equal(t, 4, detail.MyRating.Rating)
}

func TestConcurrentViewsAreCounted(t *testing.T) {
	e := newTestEnv(t)
	note := e.approved(t, e.student, "Views")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.notes.RecordView(e.ctx, note.ID))
		}()
	}
	wg.Wait()

	stored, err := e.store.Notes.ByID(e.ctx, note.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, stored.ViewCount)
}

func TestDeleteOwn(t *testing.T) {
	e := newTestEnv(t)
	note := e.approved(t, e.student, "Registers")
	reader := e.user(t, "reader", model.RoleStudent)

	_, err := e.notes.RecordDownload(e.ctx, reader, note.ID, "")
	require.NoError(t, err)
	_, err = e.notes.Rate(e.ctx, reader, note.ID, 5, "")
	require.NoError(t, err)
	_, err = e.moderation.FileReport(e.ctx, reader, note.ID, model.NewReport{Reason: model.ReasonIncorrect, Description: "wrong truth table"})
	require.NoError(t, err)

	err = e.notes.DeleteOwn(e.ctx, reader, note.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied)

	err = e.notes.DeleteOwn(e.ctx, e.moderator, note.ID)
	assert.ErrorIs(t, err, policy.ErrPermissionDenied, "moderators cannot delete someone else's note either")

	require.NoError(t, e.notes.DeleteOwn(e.ctx, e.student, note.ID))

	_, err = e.store.Notes.ByID(e.ctx, note.ID)
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)
	assert.False(t, e.files.Has(note.StoragePath))

	downloads, err := e.store.Downloads.CountByNote(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Zero(t, downloads)

	_, count, err := e.notes.AverageRating(e.ctx, note.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	reports, err := e.store.Reports.List(e.ctx, "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, reports)

	assert.Len(t, e.actionsFor(t, model.ActionFilter{NoteID: note.ID}), 1, "audit trail survives")

	err = e.notes.DeleteOwn(e.ctx, e.student, note.ID)
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)
}

func TestSearchOnlyApproved(t *testing.T) {
	e := newTestEnv(t)
	e.approved(t, e.student, "Sequential Circuits")
	e.submit(t, e.student, "Sequential Draft")

	notes, err := e.notes.Search(e.ctx, model.NoteFilter{Query: " sequential ", SubjectID: e.subject.ID, Status: model.NoteStatusPending})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Sequential Circuits", notes[0].Title)

	mine, err := e.notes.MyNotes(e.ctx, e.student, "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	mine, err = e.notes.MyNotes(e.ctx, e.student, model.NoteStatusPending)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = e.notes.MyNotes(e.ctx, e.student, "bogus")
	assert.True(t, validation.IsValidationError(err))
}
