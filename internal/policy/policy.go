// Package policy decides which callers may trigger which lifecycle operations.
// Services receive a Policy and ask it before every privileged mutation; the
// role checks live here and nowhere else.
package policy

import (
	"errors"
	"fmt"

	"github.com/noteghar/noteghar/internal/model"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnauthenticated is a PermissionDenied raised for anonymous callers.
	ErrUnauthenticated = fmt.Errorf("authentication required: %w", ErrPermissionDenied)
)

// Capability names a privileged operation.
type Capability string

const (
	ModerateNotes          Capability = "moderate_notes"
	ReviewReports          Capability = "review_reports"
	WarnUsers              Capability = "warn_users"
	ViewModerationHistory  Capability = "view_moderation_history"
	ViewModeratorDashboard Capability = "view_moderator_dashboard"
	ManageCatalog          Capability = "manage_catalog"
)

type Policy interface {
	// CanModerate is true for authenticated moderators, admins and superusers.
	CanModerate(user *model.User) bool
	Can(user *model.User, c Capability) bool
	// Require returns ErrUnauthenticated for a nil user and
	// ErrPermissionDenied when the capability is missing.
	Require(user *model.User, c Capability) error
	// Authenticated returns ErrUnauthenticated for a nil user.
	Authenticated(user *model.User) error
}

type RolePolicy struct{}

func New() *RolePolicy {
	return &RolePolicy{}
}

func (p *RolePolicy) CanModerate(user *model.User) bool {
	if user == nil {
		return false
	}
	return user.Role == model.RoleModerator || user.Role == model.RoleAdmin || user.IsSuperuser
}

func (p *RolePolicy) Can(user *model.User, c Capability) bool {
	switch c {
	case ModerateNotes, ReviewReports, WarnUsers, ViewModerationHistory, ViewModeratorDashboard:
		return p.CanModerate(user)
	case ManageCatalog:
		return user != nil && user.IsAdmin()
	default:
		return false
	}
}

func (p *RolePolicy) Require(user *model.User, c Capability) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if !p.Can(user, c) {
		return fmt.Errorf("%w: %s requires %s", ErrPermissionDenied, user.Username, c)
	}
	return nil
}

func (p *RolePolicy) Authenticated(user *model.User) error {
	if user == nil {
		return ErrUnauthenticated
	}
	return nil
}
