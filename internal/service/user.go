package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/repository"
	"github.com/noteghar/noteghar/internal/validation"
)

var ErrInvalidRole = errors.New("role must be one of student, moderator, admin")

type UserService struct {
	userRepository repository.UserRepository
	authService    *AuthService
}

func NewUserService(userRepository repository.UserRepository, authService *AuthService) *UserService {
	return &UserService{
		userRepository: userRepository,
		authService:    authService,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

// Create adds an account with any role. It backs the admin CLI; public
// sign-up goes through AuthService.Register.
func (s *UserService) Create(ctx context.Context, username, email, password, role string, superuser bool) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, validation.NewValidationError(ErrInvalidRole, validation.FieldError{Field: "role", Error: ErrInvalidRole.Error()})
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	err := errors.Join(
		validation.ValidateUsername(username),
		validation.ValidateEmail(email),
		validation.ValidatePassword(password),
	)
	if err != nil {
		return nil, mergeValidation(err)
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		IsSuperuser:  superuser,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.userRepository.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created", "user_id", user.ID, "username", user.Username, "role", role)
	return user, nil
}

// SetRole promotes or demotes a user by username
func (s *UserService) SetRole(ctx context.Context, username, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, validation.NewValidationError(ErrInvalidRole, validation.FieldError{Field: "role", Error: ErrInvalidRole.Error()})
	}

	user, err := s.userRepository.ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	err = s.userRepository.UpdateRole(ctx, user.ID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	slog.Info("user role changed", "user_id", user.ID, "from", user.Role, "to", role)
	user.Role = role
	return user, nil
}
