package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/noteghar/noteghar/internal/metrics"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/policy"
	"github.com/noteghar/noteghar/internal/repository"
	"github.com/noteghar/noteghar/internal/validation"
)

// ModerationService handles reports against notes and the moderator audit trail.
type ModerationService struct {
	store        *repository.Store
	policy       policy.Policy
	notifier     ModerationNotifier
	metrics      *metrics.Lifecycle
	historyLimit int
	now          func() time.Time
}

func NewModerationService(
	store *repository.Store,
	policy policy.Policy,
	notifier ModerationNotifier,
	metrics *metrics.Lifecycle,
	historyLimit int,
) *ModerationService {
	return &ModerationService{
		store:        store,
		policy:       policy,
		notifier:     notifier,
		metrics:      metrics,
		historyLimit: historyLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// FileReport opens a report on an approved note. A reporter can have at most
// one pending report per note.
func (s *ModerationService) FileReport(ctx context.Context, reporter *model.User, noteID string, in model.NewReport) (*model.Report, error) {
	err := s.policy.Authenticated(reporter)
	if err != nil {
		return nil, err
	}

	in.Description = strings.TrimSpace(in.Description)
	err = validation.Struct(in)
	if err != nil {
		return nil, err
	}

	note, err := s.store.Notes.ByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !note.IsApproved() {
		return nil, repository.ErrNoteNotFound
	}

	pending, err := s.store.Reports.HasPending(ctx, noteID, reporter.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, repository.ErrDuplicateReport
	}

	report := &model.Report{
		ID:          uuid.New().String(),
		NoteID:      noteID,
		ReportedBy:  reporter.ID,
		Reason:      in.Reason,
		Description: in.Description,
		Status:      model.ReportStatusPending,
		CreatedAt:   s.now(),
	}

	// The partial unique index catches a concurrent duplicate that slipped
	// past HasPending.
	err = s.store.Reports.Create(ctx, report)
	if err != nil {
		return nil, err
	}

	s.metrics.ReportFiled(string(report.Reason))
	slog.Info("report filed", "report_id", report.ID, "note_id", noteID, "reason", report.Reason)
	return report, nil
}

// Resolve closes a pending report. With removeNote the reported note is
// moved to rejected in the same transaction and a second audit record is
// written for the removal.
func (s *ModerationService) Resolve(ctx context.Context, moderator *model.User, reportID, notes string, removeNote bool) (*model.Report, error) {
	err := s.policy.Require(moderator, policy.ReviewReports)
	if err != nil {
		return nil, err
	}
	if removeNote {
		err = s.policy.Require(moderator, policy.ModerateNotes)
		if err != nil {
			return nil, err
		}
	}
	notes = strings.TrimSpace(notes)

	var report *model.Report
	var removed *model.Note
	var removalReason string
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		now := s.now()

		report, err = tx.Reports.Transition(ctx, reportID, model.ActionResolve, moderator.ID, notes, now)
		if err != nil {
			return err
		}

		err = tx.Actions.Append(ctx, &model.ModerationAction{
			ID:           uuid.New().String(),
			ModeratorID:  moderator.ID,
			ActionType:   model.ActionResolve,
			NoteID:       &report.NoteID,
			ReportID:     &report.ID,
			TargetUserID: &report.ReportedBy,
			Reason:       notes,
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}

		if !removeNote {
			return nil
		}

		removed, err = tx.Notes.Transition(ctx, report.NoteID, model.ActionRemove, moderator.ID, now)
		if err != nil {
			return fmt.Errorf("failed to remove reported note: %w", err)
		}

		removalReason = "Removed due to report: " + report.Reason.Label()
		return tx.Actions.Append(ctx, &model.ModerationAction{
			ID:           uuid.New().String(),
			ModeratorID:  moderator.ID,
			ActionType:   model.ActionRemove,
			NoteID:       &removed.ID,
			ReportID:     &report.ID,
			TargetUserID: &removed.UploadedBy,
			Reason:       removalReason,
			CreatedAt:    now,
		})
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			s.metrics.TransitionConflict("report", string(model.ActionResolve))
		}
		return nil, err
	}

	s.metrics.ReportTransition(string(model.ActionResolve), string(report.Status))
	slog.Info("report resolved", "report_id", report.ID, "moderator_id", moderator.ID, "note_removed", removeNote)

	if removed != nil {
		s.metrics.NoteTransition(string(model.ActionRemove), string(removed.Status))
		slog.Info("note removed", "note_id", removed.ID, "moderator_id", moderator.ID, "report_id", report.ID)
		s.notifyUploader(ctx, removed, removalReason)
	}

	return report, nil
}

// Dismiss closes a pending report without touching the note.
func (s *ModerationService) Dismiss(ctx context.Context, moderator *model.User, reportID, notes string) (*model.Report, error) {
	err := s.policy.Require(moderator, policy.ReviewReports)
	if err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)

	var report *model.Report
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		now := s.now()

		report, err = tx.Reports.Transition(ctx, reportID, model.ActionDismiss, moderator.ID, notes, now)
		if err != nil {
			return err
		}

		return tx.Actions.Append(ctx, &model.ModerationAction{
			ID:           uuid.New().String(),
			ModeratorID:  moderator.ID,
			ActionType:   model.ActionDismiss,
			NoteID:       &report.NoteID,
			ReportID:     &report.ID,
			TargetUserID: &report.ReportedBy,
			Reason:       notes,
			CreatedAt:    now,
		})
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			s.metrics.TransitionConflict("report", string(model.ActionDismiss))
		}
		return nil, err
	}

	s.metrics.ReportTransition(string(model.ActionDismiss), string(report.Status))
	slog.Info("report dismissed", "report_id", report.ID, "moderator_id", moderator.ID)
	return report, nil
}

// Warn records a warning against a user. Nothing changes state.
func (s *ModerationService) Warn(ctx context.Context, moderator *model.User, w model.Warning) (*model.ModerationAction, error) {
	err := s.policy.Require(moderator, policy.WarnUsers)
	if err != nil {
		return nil, err
	}

	w.Reason = strings.TrimSpace(w.Reason)
	err = validation.Struct(w)
	if err != nil {
		return nil, err
	}

	target, err := s.store.Users.ByID(ctx, w.UserID)
	if err != nil {
		return nil, err
	}

	action := &model.ModerationAction{
		ID:           uuid.New().String(),
		ModeratorID:  moderator.ID,
		ActionType:   model.ActionWarn,
		NoteID:       w.NoteID,
		ReportID:     w.ReportID,
		TargetUserID: &target.ID,
		Reason:       w.Reason,
		CreatedAt:    s.now(),
	}

	err = s.store.Actions.Append(ctx, action)
	if err != nil {
		return nil, fmt.Errorf("failed to record warning: %w", err)
	}

	s.metrics.UserWarned()
	slog.Info("user warned", "user_id", target.ID, "moderator_id", moderator.ID)

	if s.notifier != nil {
		err = s.notifier.UserWarned(ctx, target, w.Reason)
		if err != nil {
			slog.Warn("failed to send warning notice", "error", err, "user_id", target.ID)
		}
	}

	return action, nil
}

// PendingNotes is the review queue, newest first.
func (s *ModerationService) PendingNotes(ctx context.Context, moderator *model.User, courseID string) ([]*model.Note, error) {
	err := s.policy.Require(moderator, policy.ModerateNotes)
	if err != nil {
		return nil, err
	}
	return s.store.Notes.Search(ctx, model.NoteFilter{Status: model.NoteStatusPending, CourseID: courseID})
}

// PendingReports is the open report queue, newest first.
func (s *ModerationService) PendingReports(ctx context.Context, moderator *model.User, reason model.ReportReason) ([]*model.Report, error) {
	err := s.policy.Require(moderator, policy.ReviewReports)
	if err != nil {
		return nil, err
	}
	if reason != "" && !reason.Valid() {
		return nil, validation.Field("reason", "unknown report reason")
	}
	return s.store.Reports.List(ctx, model.ReportStatusPending, reason, 0)
}

// History lists audit records, newest first.
func (s *ModerationService) History(ctx context.Context, moderator *model.User, f model.ActionFilter) ([]*model.ModerationAction, error) {
	err := s.policy.Require(moderator, policy.ViewModerationHistory)
	if err != nil {
		return nil, err
	}
	if f.ActionType != "" && !f.ActionType.Valid() {
		return nil, validation.Field("action_type", "unknown action type")
	}
	if f.Limit <= 0 || f.Limit > s.historyLimit {
		f.Limit = s.historyLimit
	}
	return s.store.Actions.History(ctx, f)
}

func (s *ModerationService) notifyUploader(ctx context.Context, note *model.Note, reason string) {
	if s.notifier == nil {
		return
	}

	uploader, err := s.store.Users.ByID(ctx, note.UploadedBy)
	if err != nil {
		slog.Warn("failed to load uploader for notice", "error", err, "note_id", note.ID)
		return
	}

	err = s.notifier.NoteModerated(ctx, uploader, note, model.ActionRemove, reason)
	if err != nil {
		slog.Warn("failed to send moderation notice", "error", err, "note_id", note.ID)
	}
}
