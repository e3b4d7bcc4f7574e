package service

import (
	"context"
	"time"

	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/policy"
	"github.com/noteghar/noteghar/internal/repository"
)

const dashboardListSize = 5

// StatsService computes read-only rollups on demand.
type StatsService struct {
	store             *repository.Store
	policy            policy.Policy
	staleAfter        time.Duration
	contributorsLimit int
	now               func() time.Time
}

func NewStatsService(store *repository.Store, policy policy.Policy, staleAfter time.Duration, contributorsLimit int) *StatsService {
	return &StatsService{
		store:             store,
		policy:            policy,
		staleAfter:        staleAfter,
		contributorsLimit: contributorsLimit,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// ApprovalRate is the share of all submitted notes that were approved, as a
// percentage with one decimal.
func (s *StatsService) ApprovalRate(ctx context.Context) (float64, error) {
	counts, err := s.store.Notes.CountByStatus(ctx, "")
	if err != nil {
		return 0, err
	}
	return model.ApprovalRate(counts[model.NoteStatusApproved], total(counts)), nil
}

// NeedsAttention counts pending notes older than the staleness window.
func (s *StatsService) NeedsAttention(ctx context.Context) (int, error) {
	return s.store.Notes.CountPendingBefore(ctx, s.now().Add(-s.staleAfter))
}

func (s *StatsService) TopContributors(ctx context.Context, limit int) ([]*model.Contributor, error) {
	if limit <= 0 {
		limit = s.contributorsLimit
	}
	return s.store.Contributors.Top(ctx, limit)
}

func (s *StatsService) ModeratorDashboard(ctx context.Context, viewer *model.User) (*model.ModeratorDashboard, error) {
	err := s.policy.Require(viewer, policy.ViewModeratorDashboard)
	if err != nil {
		return nil, err
	}

	noteCounts, err := s.store.Notes.CountByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	reportCounts, err := s.store.Reports.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	d := &model.ModeratorDashboard{
		PendingNotesCount:   noteCounts[model.NoteStatusPending],
		PendingReportsCount: reportCounts[model.ReportStatusPending],
		TotalNotes:          total(noteCounts),
		ApprovedNotes:       noteCounts[model.NoteStatusApproved],
		RejectedNotes:       noteCounts[model.NoteStatusRejected],
		TotalReports:        total(reportCounts),
		ResolvedReports:     reportCounts[model.ReportStatusResolved],
		DismissedReports:    reportCounts[model.ReportStatusDismissed],
	}
	d.ApprovalRate = model.ApprovalRate(d.ApprovedNotes, d.TotalNotes)

	d.NeedsAttention, err = s.NeedsAttention(ctx)
	if err != nil {
		return nil, err
	}

	d.RecentNotes, err = s.store.Notes.Search(ctx, model.NoteFilter{Status: model.NoteStatusPending, Limit: dashboardListSize})
	if err != nil {
		return nil, err
	}
	d.RecentReports, err = s.store.Reports.List(ctx, model.ReportStatusPending, "", dashboardListSize)
	if err != nil {
		return nil, err
	}
	d.RecentActions, err = s.store.Actions.History(ctx, model.ActionFilter{Limit: dashboardListSize})
	if err != nil {
		return nil, err
	}

	// Personal counters only make sense for staff moderators; admins see
	// the shared view.
	if viewer.IsModerator() {
		mine, err := s.store.Actions.CountByModerator(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
		d.MyActionsCount = total(mine)
		d.MyApprovals = mine[model.ActionApprove]
		d.MyRejections = mine[model.ActionReject]
	}

	d.TopContributors, err = s.TopContributors(ctx, 0)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (s *StatsService) UserDashboard(ctx context.Context, user *model.User) (*model.UserDashboard, error) {
	err := s.policy.Authenticated(user)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.Notes.CountByStatus(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	d := &model.UserDashboard{
		TotalNotes:    total(counts),
		ApprovedNotes: counts[model.NoteStatusApproved],
		PendingNotes:  counts[model.NoteStatusPending],
		RejectedNotes: counts[model.NoteStatusRejected],
	}

	d.TotalDownloads, err = s.store.Notes.TotalDownloads(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	d.RecentDownloads, err = s.store.Downloads.ByUser(ctx, user.ID, dashboardListSize)
	if err != nil {
		return nil, err
	}
	d.RecentUploads, err = s.store.Notes.Search(ctx, model.NoteFilter{UploadedBy: user.ID, Limit: dashboardListSize})
	if err != nil {
		return nil, err
	}
	d.PopularNotes, err = s.store.Notes.Popular(ctx, dashboardListSize)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func total[K comparable](counts map[K]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
