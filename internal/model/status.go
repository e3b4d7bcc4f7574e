package model

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type NoteStatus string

const (
	NoteStatusPending  NoteStatus = "pending"
	NoteStatusApproved NoteStatus = "approved"
	NoteStatusRejected NoteStatus = "rejected"
)

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusReviewed  ReportStatus = "reviewed"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Transition is one row of a state machine table: the action moves an entity
// from any of From into To.
type Transition[S ~string] struct {
	From []S
	To   S
}

// Allows reports whether the transition may fire from the given state.
func (t Transition[S]) Allows(current S) bool {
	return slices.Contains(t.From, current)
}

// NoteTransitions is the complete table of note status changes. Anything not
// listed here is illegal.
var NoteTransitions = map[ActionType]Transition[NoteStatus]{
	ActionApprove: {From: []NoteStatus{NoteStatusPending}, To: NoteStatusApproved},
	ActionReject:  {From: []NoteStatus{NoteStatusPending}, To: NoteStatusRejected},
	ActionRemove:  {From: []NoteStatus{NoteStatusPending, NoteStatusApproved}, To: NoteStatusRejected},
}

// ReportTransitions is the complete table of report status changes.
// ReportStatusReviewed is never entered.
var ReportTransitions = map[ActionType]Transition[ReportStatus]{
	ActionResolve: {From: []ReportStatus{ReportStatusPending}, To: ReportStatusResolved},
	ActionDismiss: {From: []ReportStatus{ReportStatusPending}, To: ReportStatusDismissed},
}

// NoteTransition looks up the note transition for an action.
func NoteTransition(action ActionType) (Transition[NoteStatus], error) {
	t, ok := NoteTransitions[action]
	if !ok {
		return t, fmt.Errorf("%w: %q does not change a note", ErrInvalidTransition, action)
	}
	return t, nil
}

// ReportTransition looks up the report transition for an action.
func ReportTransition(action ActionType) (Transition[ReportStatus], error) {
	t, ok := ReportTransitions[action]
	if !ok {
		return t, fmt.Errorf("%w: %q does not change a report", ErrInvalidTransition, action)
	}
	return t, nil
}

// NextNoteStatus returns the status a note in current moves to under action.
func NextNoteStatus(current NoteStatus, action ActionType) (NoteStatus, error) {
	t, err := NoteTransition(action)
	if err != nil {
		return current, err
	}
	if !t.Allows(current) {
		return current, fmt.Errorf("%w: cannot %s a %s note", ErrInvalidTransition, action, current)
	}
	return t.To, nil
}

// NextReportStatus returns the status a report in current moves to under action.
func NextReportStatus(current ReportStatus, action ActionType) (ReportStatus, error) {
	t, err := ReportTransition(action)
	if err != nil {
		return current, err
	}
	if !t.Allows(current) {
		return current, fmt.Errorf("%w: cannot %s a %s report", ErrInvalidTransition, action, current)
	}
	return t.To, nil
}

func (s NoteStatus) Valid() bool {
	switch s {
	case NoteStatusPending, NoteStatusApproved, NoteStatusRejected:
		return true
	}
	return false
}

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewed, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}
