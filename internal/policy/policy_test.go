package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noteghar/noteghar/internal/model"
)

func TestCanModerate(t *testing.T) {
	p := New()

	tests := []struct {
		name string
		user *model.User
		want bool
	}{
		{"anonymous", nil, false},
		{"student", &model.User{Role: model.RoleStudent}, false},
		{"moderator", &model.User{Role: model.RoleModerator}, true},
		{"admin", &model.User{Role: model.RoleAdmin}, true},
		{"superuser student", &model.User{Role: model.RoleStudent, IsSuperuser: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanModerate(tt.user))
			assert.Equal(t, tt.want, p.Can(tt.user, ModerateNotes))
			assert.Equal(t, tt.want, p.Can(tt.user, ReviewReports))
		})
	}
}

func TestRequire(t *testing.T) {
	p := New()
	student := &model.User{Username: "sita", Role: model.RoleStudent}
	moderator := &model.User{Username: "ram", Role: model.RoleModerator}
	admin := &model.User{Username: "hari", Role: model.RoleAdmin}

	err := p.Require(nil, ModerateNotes)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	assert.ErrorIs(t, p.Require(student, ModerateNotes), ErrPermissionDenied)
	assert.NotErrorIs(t, p.Require(student, ModerateNotes), ErrUnauthenticated)
	assert.NoError(t, p.Require(moderator, ModerateNotes))

	assert.ErrorIs(t, p.Require(moderator, ManageCatalog), ErrPermissionDenied)
	assert.NoError(t, p.Require(admin, ManageCatalog))

	assert.ErrorIs(t, p.Require(admin, Capability("launch_rockets")), ErrPermissionDenied)
}

func TestAuthenticated(t *testing.T) {
	p := New()
	assert.ErrorIs(t, p.Authenticated(nil), ErrUnauthenticated)
	assert.NoError(t, p.Authenticated(&model.User{Role: model.RoleStudent}))
}
