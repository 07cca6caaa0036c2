package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/email"
	"github.com/ErlanBelekov/contacts-api/internal/metrics"
)

const (
	confirmPath = "/api/auth/confirmed_email/"
	resetPath   = "/api/auth/set_new_password/"
)

// Mailer consumes email tasks: it mints an email-action token for the
// recipient and sends a message carrying the link.
type Mailer struct {
	tokens *auth.TokenIssuer
	sender email.Sender
	logger *slog.Logger
}

func NewMailer(tokens *auth.TokenIssuer, sender email.Sender, logger *slog.Logger) *Mailer {
	return &Mailer{
		tokens: tokens,
		sender: sender,
		logger: logger.With("component", "mailer"),
	}
}

// Register attaches the mailer's handlers to mux.
func (m *Mailer) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskConfirmEmail, m.HandleConfirmEmail)
	mux.HandleFunc(TaskResetPassword, m.HandleResetPassword)
}

func (m *Mailer) HandleConfirmEmail(ctx context.Context, t *asynq.Task) error {
	return m.handle(ctx, t, "Confirm your email", confirmPath,
		"Thanks for signing up. Please confirm your email address by following the link below:")
}

func (m *Mailer) HandleResetPassword(ctx context.Context, t *asynq.Task) error {
	return m.handle(ctx, t, "Reset your password", resetPath,
		"We received a request to reset your password. Follow the link below to choose a new one:")
}

func (m *Mailer) handle(ctx context.Context, t *asynq.Task, subject, path, intro string) error {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		m.logger.ErrorContext(ctx, "undecodable email task", "type", t.Type(), "error", err)
		return fmt.Errorf("decode %s payload: %w", t.Type(), asynq.SkipRetry)
	}
	if p.Email == "" || p.OriginURL == "" {
		m.logger.ErrorContext(ctx, "incomplete email task", "type", t.Type())
		return fmt.Errorf("%s payload missing email or origin: %w", t.Type(), asynq.SkipRetry)
	}

	token, err := m.tokens.IssueEmailToken(p.Email)
	if err != nil {
		return fmt.Errorf("issue email token: %w", err)
	}
	link := strings.TrimRight(p.OriginURL, "/") + path + string(token)

	msg := email.Message{
		To:      p.Email,
		Subject: subject,
		HTML:    renderBody(p.Username, intro, link),
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		metrics.EmailsSentTotal.WithLabelValues(t.Type(), "error").Inc()
		m.logger.WarnContext(ctx, "email send failed", "type", t.Type(), "to", p.Email, "error", err)
		return err
	}
	metrics.EmailsSentTotal.WithLabelValues(t.Type(), "ok").Inc()
	m.logger.InfoContext(ctx, "email sent", "type", t.Type(), "to", p.Email)
	return nil
}

func renderBody(username, intro, link string) string {
	name := html.EscapeString(username)
	if name == "" {
		name = "there"
	}
	href := html.EscapeString(link)
	return fmt.Sprintf(`<p>Hi %s,</p><p>%s</p><p><a href="%s">%s</a></p>`, name, intro, href, href)
}
