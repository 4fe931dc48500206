package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueCritical carries verification emails; a stuck code blocks login.
	QueueCritical = "critical"
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueLow carries bulk notification fan-out.
	QueueLow = "low"

	// TaskTypeVerificationEmail is the task type for sending verification codes.
	TaskTypeVerificationEmail = "verification:email"
	// TaskTypeNotifyFanout is the task type for notification feed fan-out.
	TaskTypeNotifyFanout = "notify:fanout"
)

// VerificationEmailPayload carries a verification code to an address.
type VerificationEmailPayload struct {
	To   string `json:"to"`
	Code string `json:"code"`
}

// NotifyFanoutPayload carries one notification to a recipient set.
type NotifyFanoutPayload struct {
	UserIDs []string `json:"user_ids"`
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
}

// NewVerificationEmailTask constructs an Asynq task.
func NewVerificationEmailTask(payload VerificationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeVerificationEmail, data), nil
}

// NewNotifyFanoutTask constructs an Asynq task.
func NewNotifyFanoutTask(payload NotifyFanoutPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyFanout, data), nil
}

// Mailer delivers transactional mail. The worker injects the SMTP sender.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewVerificationEmailHandler returns the handler for verification:email
// tasks bound to the given mailer.
func NewVerificationEmailHandler(mailer Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload VerificationEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		body := "Your Gaming Hub verification code is " + payload.Code + ". It expires shortly."
		return mailer.Send(ctx, payload.To, "Verify your Gaming Hub account", body)
	}
}

// FanoutWriter writes feed rows for a recipient set.
type FanoutWriter interface {
	FanOut(ctx context.Context, userIDs []string, kind, title, body string) error
}

// NewNotifyFanoutHandler returns the handler for notify:fanout tasks bound to
// the notifications service.
func NewNotifyFanoutHandler(writer FanoutWriter) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyFanoutPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return writer.FanOut(ctx, payload.UserIDs, payload.Kind, payload.Title, payload.Body)
	}
}
