package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ErlanBelekov/contacts-api/internal/metrics"
)

const (
	QueueDefault = "default"

	TaskConfirmEmail  = "email:confirm"
	TaskResetPassword = "email:reset_password"
)

// Payload is the body shared by every email task. The worker mints the
// email-action token itself, so no secret travels through the queue.
type Payload struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	OriginURL string `json:"origin_url"`
}

// Notifier hands outbound emails off to the background mailer.
type Notifier interface {
	SendConfirmation(ctx context.Context, email, username, originURL string) error
	SendPasswordReset(ctx context.Context, email, username, originURL string) error
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type QueueNotifier struct {
	client Enqueuer
	logger *slog.Logger
}

func NewQueueNotifier(client Enqueuer, logger *slog.Logger) *QueueNotifier {
	return &QueueNotifier{client: client, logger: logger.With("component", "notifier")}
}

func (n *QueueNotifier) SendConfirmation(ctx context.Context, email, username, originURL string) error {
	return n.enqueue(ctx, TaskConfirmEmail, Payload{Email: email, Username: username, OriginURL: originURL})
}

func (n *QueueNotifier) SendPasswordReset(ctx context.Context, email, username, originURL string) error {
	return n.enqueue(ctx, TaskResetPassword, Payload{Email: email, Username: username, OriginURL: originURL})
}

func (n *QueueNotifier) enqueue(ctx context.Context, taskType string, p Payload) error {
	task, err := NewTask(taskType, p)
	if err != nil {
		return err
	}

	info, err := n.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	if err != nil {
		metrics.NotificationsEnqueuedTotal.WithLabelValues(taskType, "error").Inc()
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	metrics.NotificationsEnqueuedTotal.WithLabelValues(taskType, "ok").Inc()
	n.logger.InfoContext(ctx, "email enqueued", "type", taskType, "task_id", info.ID, "to", p.Email)
	return nil
}

// NewTask builds an asynq task carrying p.
func NewTask(taskType string, p Payload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data), nil
}
