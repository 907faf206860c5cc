package river_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"

	_ "modernc.org/sqlite"

	riveradapter "github.com/neomorfeo/kidvo/internal/adapter/river"
	"github.com/neomorfeo/kidvo/internal/domain"
)

// fakeTransport records delivered notifications and optionally fails.
type fakeTransport struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (f *fakeTransport) Send(_ context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeTransport) delivered() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notification(nil), f.sent...)
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func startClient(t *testing.T, db *sql.DB, transport domain.MailTransport) *riveradapter.Client {
	t.Helper()

	worker := riveradapter.NewNotificationWorker(transport, slog.Default(), 2*time.Second)
	client, err := riveradapter.Setup(context.Background(), db, worker, slog.Default())
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}
	return client
}

func run(t *testing.T, client *riveradapter.Client) {
	t.Helper()
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})
}

func TestDispatcher_Dispatch_DeliversThroughTransport(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	client := startClient(t, db, transport)

	// Subscribe to job completions before starting so we don't miss events.
	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	defer subscribeCancel()
	run(t, client)

	dispatcher := riveradapter.NewDispatcher(client, slog.Default())
	dispatcher.Dispatch(context.Background(), domain.Notification{
		Template:  domain.TemplateTrialConfirmed,
		Recipient: "parent@example.com",
		Payload:   map[string]any{"listing_title": "Junior Football", "provider_email": "club@example.com"},
	})

	select {
	case event := <-subscribeChan:
		if event.Job.Kind != "notification.send" {
			t.Errorf("job kind = %q, want %q", event.Job.Kind, "notification.send")
		}
		if event.Job.Queue != riveradapter.QueueNotifications {
			t.Errorf("queue = %q, want %q", event.Job.Queue, riveradapter.QueueNotifications)
		}
		if event.Job.MaxAttempts != 1 {
			t.Errorf("max attempts = %d, want 1", event.Job.MaxAttempts)
		}
		args := string(event.Job.EncodedArgs)
		for _, want := range []string{`"template":"trial_request.confirmed"`, `"recipient":"parent@example.com"`} {
			if !strings.Contains(args, want) {
				t.Errorf("encoded args missing %s, got: %s", want, args)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}

	sent := transport.delivered()
	if len(sent) != 1 {
		t.Fatalf("transport got %d notifications, want 1", len(sent))
	}
	if sent[0].Payload["provider_email"] != "club@example.com" {
		t.Errorf("payload = %v", sent[0].Payload)
	}
}

func TestDispatcher_TransportFailure_IsNotRetried(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{err: errors.New("smtp unavailable")}
	client := startClient(t, db, transport)

	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCancelled, goriver.EventKindJobFailed)
	defer subscribeCancel()
	run(t, client)

	riveradapter.NewDispatcher(client, slog.Default()).Dispatch(context.Background(), domain.Notification{
		Template:  domain.TemplateTrialDeclined,
		Recipient: "parent@example.com",
	})

	select {
	case event := <-subscribeChan:
		if event.Kind != goriver.EventKindJobCancelled {
			t.Errorf("event kind = %q, want job_cancelled", event.Kind)
		}
		if event.Job.Attempt != 1 {
			t.Errorf("attempt = %d, want 1", event.Job.Attempt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job cancellation")
	}
}

func TestDispatcher_EnqueueFailure_IsLogged(t *testing.T) {
	db := setupTestDB(t)
	client := startClient(t, db, &fakeTransport{})
	logger, buf := bufferLogger()

	// A closed database makes every insert fail.
	db.Close()

	riveradapter.NewDispatcher(client, logger).Dispatch(context.Background(), domain.Notification{
		Template:  domain.TemplateListingApproved,
		Recipient: "club@example.com",
	})

	out := buf.String()
	if !strings.Contains(out, "notification enqueue failed") {
		t.Errorf("expected enqueue failure to be logged, got: %s", out)
	}
	if !strings.Contains(out, "template=listing.approved") {
		t.Errorf("log line missing template, got: %s", out)
	}
}
