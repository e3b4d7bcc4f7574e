package model

import (
	"time"
)

type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonCopyright     ReportReason = "copyright"
	ReasonIncorrect     ReportReason = "incorrect"
	ReasonDuplicate     ReportReason = "duplicate"
	ReasonOther         ReportReason = "other"
)

var reasonLabels = map[ReportReason]string{
	ReasonSpam:          "Spam",
	ReasonInappropriate: "Inappropriate content",
	ReasonCopyright:     "Copyright violation",
	ReasonIncorrect:     "Incorrect information",
	ReasonDuplicate:     "Duplicate content",
	ReasonOther:         "Other",
}

func (r ReportReason) Valid() bool {
	_, ok := reasonLabels[r]
	return ok
}

func (r ReportReason) Label() string {
	if label, ok := reasonLabels[r]; ok {
		return label
	}
	return string(r)
}

type Report struct {
	ID             string       `db:"id" json:"id"`
	NoteID         string       `db:"note_id" json:"note_id"`
	ReportedBy     string       `db:"reported_by" json:"reported_by"`
	Reason         ReportReason `db:"reason" json:"reason"`
	Description    string       `db:"description" json:"description"`
	Status         ReportStatus `db:"status" json:"status"`
	ReviewedBy     *string      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ModeratorNotes string       `db:"moderator_notes" json:"moderator_notes"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

func (r *Report) IsOpen() bool {
	return r.Status == ReportStatusPending
}

type NewReport struct {
	Reason      ReportReason `json:"reason" validate:"required,oneof=spam inappropriate copyright incorrect duplicate other"`
	Description string       `json:"description" validate:"required,max=2000"`
}
