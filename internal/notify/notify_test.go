package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/email"
	"github.com/ErlanBelekov/contacts-api/internal/notify"
)

// ---- fakes ----

type fakeEnqueuer struct {
	enqueue func(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return f.enqueue(ctx, task, opts...)
}

type fakeSender struct {
	sent []email.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg email.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

// ---- helpers ----

func newMailer(t *testing.T, sender email.Sender) (*notify.Mailer, *auth.TokenIssuer) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: []byte("test-jwt-secret-at-least-32-chars!!")})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return notify.NewMailer(issuer, sender, slog.Default()), issuer
}

func newTask(t *testing.T, taskType string, p notify.Payload) *asynq.Task {
	t.Helper()
	task, err := notify.NewTask(taskType, p)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	return task
}

// ---- QueueNotifier ----

func TestSendConfirmation_EnqueuesPayload(t *testing.T) {
	var captured *asynq.Task
	n := notify.NewQueueNotifier(&fakeEnqueuer{
		enqueue: func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
			captured = task
			return &asynq.TaskInfo{ID: "task-1"}, nil
		},
	}, slog.Default())

	if err := n.SendConfirmation(context.Background(), "a@example.com", "alice", "http://localhost:8000/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured == nil {
		t.Fatal("expected a task to be enqueued")
	}
	if captured.Type() != notify.TaskConfirmEmail {
		t.Fatalf("expected type %s, got %s", notify.TaskConfirmEmail, captured.Type())
	}

	var p notify.Payload
	if err := json.Unmarshal(captured.Payload(), &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.Email != "a@example.com" || p.Username != "alice" || p.OriginURL != "http://localhost:8000/" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestSendPasswordReset_EnqueueFailure(t *testing.T) {
	n := notify.NewQueueNotifier(&fakeEnqueuer{
		enqueue: func(_ context.Context, _ *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
			return nil, errors.New("redis down")
		},
	}, slog.Default())

	err := n.SendPasswordReset(context.Background(), "a@example.com", "alice", "http://localhost:8000")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), notify.TaskResetPassword) {
		t.Fatalf("expected task type in error, got %v", err)
	}
}

// ---- Mailer ----

func TestHandleConfirmEmail_SendsDecodableLink(t *testing.T) {
	sender := &fakeSender{}
	m, issuer := newMailer(t, sender)

	task := newTask(t, notify.TaskConfirmEmail, notify.Payload{
		Email: "a@example.com", Username: "alice", OriginURL: "http://localhost:8000/",
	})
	if err := m.HandleConfirmEmail(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.To != "a@example.com" {
		t.Fatalf("expected recipient a@example.com, got %s", msg.To)
	}

	const prefix = `href="http://localhost:8000/api/auth/confirmed_email/`
	i := strings.Index(msg.HTML, prefix)
	if i < 0 {
		t.Fatalf("confirm link not found in body: %s", msg.HTML)
	}
	rest := msg.HTML[i+len(prefix):]
	token := rest[:strings.Index(rest, `"`)]

	sub, err := issuer.DecodeEmailToken(auth.EmailToken(token))
	if err != nil {
		t.Fatalf("emailed token does not decode: %v", err)
	}
	if sub != "a@example.com" {
		t.Fatalf("expected subject a@example.com, got %s", sub)
	}
}

func TestHandleResetPassword_UsesResetPath(t *testing.T) {
	sender := &fakeSender{}
	m, _ := newMailer(t, sender)

	task := newTask(t, notify.TaskResetPassword, notify.Payload{
		Email: "a@example.com", Username: "alice", OriginURL: "http://localhost:8000",
	})
	if err := m.HandleResetPassword(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sender.sent[0].HTML, "http://localhost:8000/api/auth/set_new_password/") {
		t.Fatalf("reset link not found in body: %s", sender.sent[0].HTML)
	}
}

func TestHandle_BadPayload_SkipsRetry(t *testing.T) {
	sender := &fakeSender{}
	m, _ := newMailer(t, sender)

	err := m.HandleConfirmEmail(context.Background(), asynq.NewTask(notify.TaskConfirmEmail, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}

	err = m.HandleConfirmEmail(context.Background(), newTask(t, notify.TaskConfirmEmail, notify.Payload{Username: "x"}))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for empty email, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.sent))
	}
}

func TestHandle_SendFailure_IsRetried(t *testing.T) {
	m, _ := newMailer(t, &fakeSender{err: errors.New("resend 500")})

	task := newTask(t, notify.TaskConfirmEmail, notify.Payload{Email: "a@example.com", OriginURL: "http://x"})
	err := m.HandleConfirmEmail(context.Background(), task)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("send failures must stay retryable")
	}
}
