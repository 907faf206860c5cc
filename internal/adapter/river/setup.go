package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// QueueNotifications is the queue every notification job is inserted into.
const QueueNotifications = "notifications"

// notificationWorkers stays small: every job shares the single SQLite
// connection with request traffic.
const notificationWorkers = 2

// Setup migrates River's tables and returns a client that works the
// notification queue. The caller owns Start and Stop.
func Setup(ctx context.Context, db *sql.DB, worker *NotificationWorker, logger *slog.Logger) (*Client, error) {
	driver := riversqlite.New(db)

	// River's tables live beside the goose-managed schema but are versioned
	// by River itself.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, worker); err != nil {
		return nil, fmt.Errorf("registering notification worker: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	client, err := river.NewClient(driver, &river.Config{
		Logger: logger,
		Queues: map[string]river.QueueConfig{
			QueueNotifications: {MaxWorkers: notificationWorkers},
		},
		Workers: workers,
		// Cancelled deliveries are kept a week so failures stay inspectable.
		CompletedJobRetentionPeriod: 24 * time.Hour,
		CancelledJobRetentionPeriod: 7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
