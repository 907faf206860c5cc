package river

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// NotificationWorker hands queued notifications to the mail transport and
// logs the outcome of every attempt.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationArgs]

	transport domain.MailTransport
	logger    *slog.Logger
	timeout   time.Duration
}

// NewNotificationWorker creates a worker delivering through transport.
// A zero timeout keeps River's default job timeout.
func NewNotificationWorker(transport domain.MailTransport, logger *slog.Logger, timeout time.Duration) *NotificationWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationWorker{transport: transport, logger: logger, timeout: timeout}
}

// Timeout bounds a single delivery with the transport timeout.
func (w *NotificationWorker) Timeout(*river.Job[NotificationArgs]) time.Duration {
	return w.timeout
}

// Work delivers a single notification. A failed send cancels the job so
// it is never retried.
func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationArgs]) error {
	err := w.transport.Send(ctx, domain.Notification{
		Template:  domain.Template(job.Args.Template),
		Recipient: job.Args.Recipient,
		Payload:   job.Args.Payload,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "notification failed",
			"template", job.Args.Template,
			"recipient", job.Args.Recipient,
			"job_id", job.ID,
			"error", err,
		)
		return river.JobCancel(err)
	}

	w.logger.InfoContext(ctx, "notification sent",
		"template", job.Args.Template,
		"recipient", job.Args.Recipient,
		"job_id", job.ID,
	)
	return nil
}
