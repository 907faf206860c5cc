package river

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// Compile-time check: Dispatcher implements domain.Notifier.
var _ domain.Notifier = (*Dispatcher)(nil)

// NotificationArgs carries one notification through the job queue.
// River serializes this as JSON into its job queue table, so the worker
// never needs to query application tables.
type NotificationArgs struct {
	Template  string         `json:"template"`
	Recipient string         `json:"recipient"`
	Payload   map[string]any `json:"payload"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationArgs) Kind() string { return "notification.send" }

// InsertOpts limits every notification to a single attempt: delivery is
// at-most-once and a failed send is only logged.
func (NotificationArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 1, Queue: QueueNotifications}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// enqueueTimeout bounds the insert so a stuck queue cannot hold up the
// command that triggered the notification.
const enqueueTimeout = 5 * time.Second

// Dispatcher implements domain.Notifier by enqueuing River jobs.
type Dispatcher struct {
	client *Client
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher backed by the given River client.
func NewDispatcher(client *Client, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{client: client, logger: logger}
}

// Dispatch enqueues the notification and returns. Enqueue failures are
// logged and swallowed; the caller's transition has already committed.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	res, err := d.client.Insert(ctx, NotificationArgs{
		Template:  string(n.Template),
		Recipient: n.Recipient,
		Payload:   n.Payload,
	}, nil)
	if err != nil {
		d.logger.ErrorContext(ctx, "notification enqueue failed",
			"template", n.Template,
			"recipient", n.Recipient,
			"error", err,
		)
		return
	}

	d.logger.DebugContext(ctx, "notification enqueued",
		"template", n.Template,
		"recipient", n.Recipient,
		"job_id", res.Job.ID,
	)
}
