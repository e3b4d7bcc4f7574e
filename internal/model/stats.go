package model

type Contributor struct {
	UserID        string `db:"user_id" json:"user_id"`
	Username      string `db:"username" json:"username"`
	ApprovedCount int    `db:"approved_count" json:"approved_count"`
}

type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

// ApprovalRate is approved/total as a percentage rounded to one decimal, 0
// when nothing has been submitted.
func ApprovalRate(approved, total int) float64 {
	if total == 0 {
		return 0
	}
	return RoundTenth(float64(approved) / float64(total) * 100)
}

type ModeratorDashboard struct {
	PendingNotesCount   int                 `json:"pending_notes_count"`
	PendingReportsCount int                 `json:"pending_reports_count"`
	NeedsAttention      int                 `json:"needs_attention"`
	TotalNotes          int                 `json:"total_notes"`
	ApprovedNotes       int                 `json:"approved_notes"`
	RejectedNotes       int                 `json:"rejected_notes"`
	ApprovalRate        float64             `json:"approval_rate"`
	TotalReports        int                 `json:"total_reports"`
	ResolvedReports     int                 `json:"resolved_reports"`
	DismissedReports    int                 `json:"dismissed_reports"`
	RecentNotes         []*Note             `json:"recent_notes"`
	RecentReports       []*Report           `json:"recent_reports"`
	RecentActions       []*ModerationAction `json:"recent_actions"`
	MyActionsCount      int                 `json:"my_actions_count"`
	MyApprovals         int                 `json:"my_approvals"`
	MyRejections        int                 `json:"my_rejections"`
	TopContributors     []*Contributor      `json:"top_contributors"`
}

type UserDashboard struct {
	TotalNotes      int         `json:"total_notes"`
	ApprovedNotes   int         `json:"approved_notes"`
	PendingNotes    int         `json:"pending_notes"`
	RejectedNotes   int         `json:"rejected_notes"`
	TotalDownloads  int64       `json:"total_downloads"`
	RecentDownloads []*Download `json:"recent_downloads"`
	RecentUploads   []*Note     `json:"recent_uploads"`
	PopularNotes    []*Note     `json:"popular_notes"`
}
