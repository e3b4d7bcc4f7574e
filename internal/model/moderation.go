package model

import (
	"time"
)

type ActionType string

const (
	ActionApprove ActionType = "approve"
	ActionReject  ActionType = "reject"
	ActionRemove  ActionType = "remove"
	ActionWarn    ActionType = "warn"
	ActionRestore ActionType = "restore"
	ActionResolve ActionType = "resolve"
	ActionDismiss ActionType = "dismiss"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionRemove, ActionWarn, ActionRestore, ActionResolve, ActionDismiss:
		return true
	}
	return false
}

// ModerationAction is the append-only audit record of a moderator decision.
// NoteID and ReportID are weak references and outlive the rows they name.
type ModerationAction struct {
	ID           string     `db:"id" json:"id"`
	ModeratorID  string     `db:"moderator_id" json:"moderator_id"`
	ActionType   ActionType `db:"action_type" json:"action_type"`
	NoteID       *string    `db:"note_id" json:"note_id,omitempty"`
	ReportID     *string    `db:"report_id" json:"report_id,omitempty"`
	TargetUserID *string    `db:"target_user_id" json:"target_user_id,omitempty"`
	Reason       string     `db:"reason" json:"reason"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

type ActionFilter struct {
	ModeratorID string
	ActionType  ActionType
	NoteID      string
	ReportID    string
	Limit       int
}

type Warning struct {
	UserID   string  `json:"user_id" validate:"required"`
	Reason   string  `json:"reason" validate:"required,max=1000"`
	NoteID   *string `json:"note_id,omitempty"`
	ReportID *string `json:"report_id,omitempty"`
}
