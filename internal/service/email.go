package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/noteghar/noteghar/internal/model"
	"github.com/resend/resend-go/v2"
)

// ModerationNotifier tells uploaders what happened to their notes.
type ModerationNotifier interface {
	NoteModerated(ctx context.Context, uploader *model.User, note *model.Note, action model.ActionType, reason string) error
	UserWarned(ctx context.Context, user *model.User, reason string) error
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, username string) error {
	subject, body := welcomeEmailTemplate(username, s.appURL+"/dashboard", s.appName)
	return s.send(ctx, "welcome", email, subject, body)
}

func (s *EmailService) NoteModerated(ctx context.Context, uploader *model.User, note *model.Note, action model.ActionType, reason string) error {
	noteURL := fmt.Sprintf("%s/notes/%s", s.appURL, note.ID)

	var subject, body string
	switch action {
	case model.ActionApprove:
		subject, body = noteApprovedEmailTemplate(uploader.Username, note.Title, noteURL, s.appName)
	case model.ActionReject:
		subject, body = noteRejectedEmailTemplate(uploader.Username, note.Title, reason, s.appName)
	case model.ActionRemove:
		subject, body = noteRemovedEmailTemplate(uploader.Username, note.Title, reason, s.appName)
	default:
		return nil
	}

	return s.send(ctx, "note_"+string(action), uploader.Email, subject, body)
}

func (s *EmailService) UserWarned(ctx context.Context, user *model.User, reason string) error {
	subject, body := warningEmailTemplate(user.Username, reason, s.appName)
	return s.send(ctx, "warning", user.Email, subject, body)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}
