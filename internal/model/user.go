package model

import (
	"time"
)

const (
	RoleStudent   = "student"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash *string   `db:"password_hash" json:"-"` // Nullable for accounts created without a password
	Role         string    `db:"role" json:"role"`
	IsSuperuser  bool      `db:"is_superuser" json:"is_superuser"`
	Institution  string    `db:"institution" json:"institution,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleModerator, RoleAdmin:
		return true
	}
	return false
}
