package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/noteghar/noteghar/internal/markdown"
	"github.com/noteghar/noteghar/internal/metrics"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/policy"
	"github.com/noteghar/noteghar/internal/repository"
	"github.com/noteghar/noteghar/internal/validation"
)

// DefaultRejectReason is recorded when a moderator rejects without a reason.
const DefaultRejectReason = "Quality standards not met"

// ApproveReason is the audit reason on every approval.
const ApproveReason = "Note approved"

const maxReviewLength = 2000

// NoteService owns the note lifecycle: submission, moderation decisions,
// counters, ratings and deletion.
type NoteService struct {
	store    *repository.Store
	files    *FileService
	policy   policy.Policy
	notifier ModerationNotifier
	metrics  *metrics.Lifecycle
	markdown *markdown.Renderer
	now      func() time.Time
}

func NewNoteService(
	store *repository.Store,
	files *FileService,
	policy policy.Policy,
	notifier ModerationNotifier,
	metrics *metrics.Lifecycle,
) *NoteService {
	return &NoteService{
		store:    store,
		files:    files,
		policy:   policy,
		notifier: notifier,
		metrics:  metrics,
		markdown: markdown.NewRenderer(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores the file and creates a pending note owned by the uploader.
func (s *NoteService) Submit(ctx context.Context, uploader *model.User, draft model.NoteDraft, upload Upload) (*model.Note, error) {
	err := s.policy.Authenticated(uploader)
	if err != nil {
		return nil, err
	}

	err = mergeValidation(errors.Join(validation.Struct(draft), s.files.Validate(upload)))
	if err != nil {
		return nil, err
	}

	err = s.checkPlacement(ctx, draft)
	if err != nil {
		return nil, err
	}

	stored, err := s.files.Save(ctx, upload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	note := &model.Note{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		SubjectID:   draft.SubjectID,
		CourseID:    draft.CourseID,
		SemesterID:  draft.SemesterID,
		UploadedBy:  uploader.ID,
		Tags:        normalizeTags(draft.Tags),
		FileName:    stored.Name,
		FileExt:     stored.Ext,
		FileSize:    stored.Size,
		StoragePath: stored.StoragePath,
		Status:      model.NoteStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.Notes.Create(ctx, note)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		s.files.Remove(ctx, stored.StoragePath)
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.metrics.NoteSubmitted()
	slog.Info("note submitted", "note_id", note.ID, "uploaded_by", uploader.ID, "size", note.FileSize)
	return note, nil
}

// checkPlacement makes sure the subject exists and sits under the chosen
// course and semester.
func (s *NoteService) checkPlacement(ctx context.Context, draft model.NoteDraft) error {
	subject, err := s.store.Catalog.SubjectByID(ctx, draft.SubjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return validation.Field("subject_id", "unknown subject")
	}
	if err != nil {
		return err
	}

	if subject.CourseID != draft.CourseID || subject.SemesterID != draft.SemesterID {
		return validation.Field("subject_id", "subject does not belong to the selected course and semester")
	}
	return nil
}

func (s *NoteService) Approve(ctx context.Context, moderator *model.User, noteID string) (*model.Note, error) {
	return s.moderate(ctx, moderator, noteID, model.ActionApprove, ApproveReason)
}

func (s *NoteService) Reject(ctx context.Context, moderator *model.User, noteID, reason string) (*model.Note, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectReason
	}
	return s.moderate(ctx, moderator, noteID, model.ActionReject, reason)
}

// moderate applies a moderator decision and its audit record atomically.
func (s *NoteService) moderate(ctx context.Context, moderator *model.User, noteID string, action model.ActionType, reason string) (*model.Note, error) {
	err := s.policy.Require(moderator, policy.ModerateNotes)
	if err != nil {
		return nil, err
	}

	var note *model.Note
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		now := s.now()

		note, err = tx.Notes.Transition(ctx, noteID, action, moderator.ID, now)
		if err != nil {
			return err
		}

		return tx.Actions.Append(ctx, &model.ModerationAction{
			ID:           uuid.New().String(),
			ModeratorID:  moderator.ID,
			ActionType:   action,
			NoteID:       &note.ID,
			TargetUserID: &note.UploadedBy,
			Reason:       reason,
			CreatedAt:    now,
		})
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			s.metrics.TransitionConflict("note", string(action))
		}
		return nil, err
	}

	s.metrics.NoteTransition(string(action), string(note.Status))
	slog.Info("note "+pastTense(action), "note_id", note.ID, "moderator_id", moderator.ID, "action", action)

	s.notifyUploader(ctx, note, action, reason)
	return note, nil
}

// notifyUploader emails the uploader after the decision committed. It never
// fails the request.
func (s *NoteService) notifyUploader(ctx context.Context, note *model.Note, action model.ActionType, reason string) {
	if s.notifier == nil {
		return
	}

	uploader, err := s.store.Users.ByID(ctx, note.UploadedBy)
	if err != nil {
		slog.Warn("failed to load uploader for notice", "error", err, "note_id", note.ID)
		return
	}

	err = s.notifier.NoteModerated(ctx, uploader, note, action, reason)
	if err != nil {
		slog.Warn("failed to send moderation notice", "error", err, "note_id", note.ID, "action", action)
	}
}

// Get returns a note with its rating summary. Approved notes are visible to
// everyone; others only to the uploader and moderators. Viewing an approved
// note counts as a view.
func (s *NoteService) Get(ctx context.Context, viewer *model.User, noteID string) (*model.NoteDetail, error) {
	note, err := s.visible(ctx, viewer, noteID)
	if err != nil {
		return nil, err
	}

	if note.IsApproved() {
		err = s.RecordView(ctx, note.ID)
		if err != nil {
			return nil, err
		}
		note.ViewCount++
	}

	sum, count, err := s.store.Ratings.Summary(ctx, note.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize ratings: %w", err)
	}

	html, err := s.markdown.Render(note.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to render description: %w", err)
	}

	detail := &model.NoteDetail{
		Note:            note,
		DescriptionHTML: html,
		AverageRating:   model.AverageRating(sum, count),
		RatingCount:     count,
	}

	if viewer != nil {
		mine, err := s.store.Ratings.ByNoteAndUser(ctx, note.ID, viewer.ID)
		if err != nil && !errors.Is(err, repository.ErrRatingNotFound) {
			return nil, err
		}
		detail.MyRating = mine
	}

	return detail, nil
}

func (s *NoteService) visible(ctx context.Context, viewer *model.User, noteID string) (*model.Note, error) {
	note, err := s.store.Notes.ByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if note.IsApproved() || s.policy.CanModerate(viewer) || (viewer != nil && viewer.ID == note.UploadedBy) {
		return note, nil
	}

	// Hide that unapproved content exists
	return nil, repository.ErrNoteNotFound
}

// RecordView atomically bumps the view counter.
func (s *NoteService) RecordView(ctx context.Context, noteID string) error {
	err := s.store.Notes.IncrementViews(ctx, noteID)
	if err != nil {
		return err
	}
	s.metrics.NoteViewed()
	return nil
}

// RecordDownload appends a download fact and bumps the counter of an
// approved note in one transaction.
func (s *NoteService) RecordDownload(ctx context.Context, user *model.User, noteID, ip string) (*model.Download, error) {
	err := s.policy.Authenticated(user)
	if err != nil {
		return nil, err
	}

	download := &model.Download{
		ID:           uuid.New().String(),
		NoteID:       noteID,
		UserID:       user.ID,
		DownloadedAt: s.now(),
	}
	if ip != "" {
		download.IPAddress = &ip
	}

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		err := tx.Notes.IncrementDownloads(ctx, noteID)
		if err != nil {
			return err
		}
		return tx.Downloads.Create(ctx, download)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.NoteDownloaded()
	return download, nil
}

// Download records the download and returns a short-lived link to the file.
func (s *NoteService) Download(ctx context.Context, user *model.User, noteID, ip string) (string, error) {
	err := s.policy.Authenticated(user)
	if err != nil {
		return "", err
	}

	note, err := s.store.Notes.ByID(ctx, noteID)
	if err != nil {
		return "", err
	}
	if !note.IsApproved() {
		return "", repository.ErrNoteNotFound
	}

	url, err := s.files.URL(ctx, note)
	if err != nil {
		return "", fmt.Errorf("failed to sign download link: %w", err)
	}

	_, err = s.RecordDownload(ctx, user, noteID, ip)
	if err != nil {
		return "", err
	}

	return url, nil
}

// Rate creates or replaces the user's rating on an approved note.
func (s *NoteService) Rate(ctx context.Context, user *model.User, noteID string, stars int, review string) (*model.Rating, error) {
	err := s.policy.Authenticated(user)
	if err != nil {
		return nil, err
	}

	err = validation.Stars(stars, model.MinStars, model.MaxStars)
	if err != nil {
		return nil, err
	}
	review = strings.TrimSpace(review)
	if utf8.RuneCountInString(review) > maxReviewLength {
		return nil, validation.Field("review", fmt.Sprintf("must be at most %d characters", maxReviewLength))
	}

	note, err := s.store.Notes.ByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !note.IsApproved() {
		return nil, repository.ErrNoteNotFound
	}

	now := s.now()
	rating, err := s.store.Ratings.Upsert(ctx, &model.Rating{
		ID:        uuid.New().String(),
		NoteID:    noteID,
		UserID:    user.ID,
		Rating:    stars,
		Review:    review,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	slog.Info("note rated", "note_id", noteID, "user_id", user.ID, "rating", stars)
	return rating, nil
}

// AverageRating returns the mean rating rounded to one decimal and the
// number of ratings.
func (s *NoteService) AverageRating(ctx context.Context, noteID string) (float64, int, error) {
	sum, count, err := s.store.Ratings.Summary(ctx, noteID)
	if err != nil {
		return 0, 0, err
	}
	return model.AverageRating(sum, count), count, nil
}

func (s *NoteService) Ratings(ctx context.Context, viewer *model.User, noteID string) ([]*model.Rating, error) {
	_, err := s.visible(ctx, viewer, noteID)
	if err != nil {
		return nil, err
	}
	return s.store.Ratings.ByNote(ctx, noteID)
}

// MarkHelpful records the user's helpful vote. Voting twice is a no-op.
func (s *NoteService) MarkHelpful(ctx context.Context, user *model.User, ratingID string) (bool, error) {
	err := s.policy.Authenticated(user)
	if err != nil {
		return false, err
	}

	rating, err := s.store.Ratings.ByID(ctx, ratingID)
	if err != nil {
		return false, err
	}
	if rating.UserID == user.ID {
		return false, validation.Field("rating_id", "you cannot mark your own review as helpful")
	}

	return s.store.Ratings.MarkHelpful(ctx, &model.RatingHelpful{
		ID:        uuid.New().String(),
		RatingID:  ratingID,
		UserID:    user.ID,
		CreatedAt: s.now(),
	})
}

func (s *NoteService) UnmarkHelpful(ctx context.Context, user *model.User, ratingID string) error {
	err := s.policy.Authenticated(user)
	if err != nil {
		return err
	}

	_, err = s.store.Ratings.ByID(ctx, ratingID)
	if err != nil {
		return err
	}

	return s.store.Ratings.UnmarkHelpful(ctx, ratingID, user.ID)
}

// DeleteOwn removes a note and its downloads, ratings and reports. Only the
// uploader may delete. Audit records stay.
func (s *NoteService) DeleteOwn(ctx context.Context, requester *model.User, noteID string) error {
	err := s.policy.Authenticated(requester)
	if err != nil {
		return err
	}

	var storagePath string
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		note, err := tx.Notes.ByID(ctx, noteID)
		if err != nil {
			return err
		}
		if note.UploadedBy != requester.ID {
			return fmt.Errorf("%w: only the uploader can delete this note", policy.ErrPermissionDenied)
		}

		storagePath = note.StoragePath
		return tx.Notes.Delete(ctx, noteID)
	})
	if err != nil {
		return err
	}

	s.files.Remove(ctx, storagePath)
	slog.Info("note deleted", "note_id", noteID, "user_id", requester.ID)
	return nil
}

// Search lists approved notes, newest first.
func (s *NoteService) Search(ctx context.Context, filter model.NoteFilter) ([]*model.Note, error) {
	filter.Status = model.NoteStatusApproved
	filter.UploadedBy = ""
	filter.Query = strings.TrimSpace(filter.Query)
	return s.store.Notes.Search(ctx, filter)
}

// MyNotes lists the user's own uploads in any status.
func (s *NoteService) MyNotes(ctx context.Context, user *model.User, status model.NoteStatus) ([]*model.Note, error) {
	err := s.policy.Authenticated(user)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, validation.Field("status", "unknown status")
	}
	return s.store.Notes.Search(ctx, model.NoteFilter{UploadedBy: user.ID, Status: status})
}

func normalizeTags(tags string) string {
	n := model.Note{Tags: tags}
	return strings.Join(n.TagList(), ", ")
}

func pastTense(action model.ActionType) string {
	switch action {
	case model.ActionApprove:
		return "approved"
	case model.ActionReject:
		return "rejected"
	case model.ActionRemove:
		return "removed"
	case model.ActionWarn:
		return "warned"
	case model.ActionResolve:
		return "resolved"
	case model.ActionDismiss:
		return "dismissed"
	default:
		return string(action)
	}
}
