package validation

import (
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)

// ValidateUsername validates an account username
func ValidateUsername(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return Field("username", "username is required")
	}

	if len(trimmed) > 150 {
		return Field("username", "username is too long (max 150 characters)")
	}

	if !usernameRegex.MatchString(trimmed) {
		return Field("username", "only letters, digits and @/./+/-/_ are allowed")
	}

	return nil
}
