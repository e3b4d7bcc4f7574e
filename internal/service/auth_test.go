package service

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/noteghar/noteghar/internal/db/dbtest"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/repository"
	"github.com/noteghar/noteghar/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, repository.UserRepository) {
	t.Helper()
	users := repository.NewUserRepository(dbtest.Open(t))
	email := NewEmailService("", "noreply@example.com", "http://localhost", "NoteGhar", true)
	return NewAuthService(users, email, "test-secret", false, time.Hour), users
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := t.Context()
	auth, _ := newAuthService(t)

	user, err := auth.Register(ctx, " ram ", "Ram@Example.com", "correct horse battery", "TU")
	require.NoError(t, err)
	assert.Equal(t, "ram", user.Username)
	assert.Equal(t, "ram@example.com", user.Email)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.False(t, user.IsSuperuser)

	byName, err := auth.Login(ctx, "ram", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := auth.Login(ctx, "RAM@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = auth.Login(ctx, "ram", "wrong horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Register(ctx, "ram", "other@example.com", "correct horse battery", "")
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newAuthService(t)

	_, err := auth.Register(t.Context(), "bad name!", "not-an-email", "short", "")

	var vErr *validation.ValidationError
	require.ErrorAs(t, err, &vErr)
	fields := vErr.FieldMap()
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestUserFromToken(t *testing.T) {
	ctx := t.Context()
	auth, users := newAuthService(t)

	user, err := auth.Register(ctx, "sita", "sita@example.com", "correct horse battery", "")
	require.NoError(t, err)

	token, expiry, err := auth.GenerateJWT(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)

	got, err := auth.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Role changes apply without a new token
	require.NoError(t, users.UpdateRole(ctx, user.ID, model.RoleModerator))
	got, err = auth.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, got.Role)

	_, err = auth.UserFromToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = auth.UserFromToken(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	signed, err = expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.UserFromToken(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTCookie(t *testing.T) {
	auth, _ := newAuthService(t)

	rec := httptest.NewRecorder()
	auth.SetJWTCookie(rec, "token", time.Now().Add(time.Hour))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AuthCookieName, cookies[0].Name)
	assert.Equal(t, "token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec = httptest.NewRecorder()
	auth.ClearJWTCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

func TestSetRole(t *testing.T) {
	e := newTestEnv(t)

	user, err := e.users.SetRole(e.ctx, "student", model.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, user.Role)

	_, err = e.users.SetRole(e.ctx, "student", "root")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = e.users.SetRole(e.ctx, "ghost", model.RoleAdmin)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
