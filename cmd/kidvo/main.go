package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/kidvo/internal/adapter/fsm"
	"github.com/neomorfeo/kidvo/internal/adapter/mail"
	oteladapter "github.com/neomorfeo/kidvo/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/kidvo/internal/adapter/river"
	"github.com/neomorfeo/kidvo/internal/adapter/schedule"
	"github.com/neomorfeo/kidvo/internal/adapter/sqlite"
	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/config"
	"github.com/neomorfeo/kidvo/internal/domain"

	handler "github.com/neomorfeo/kidvo/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("kidvo exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	providers, err := oteladapter.Setup(ctx, oteladapter.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	transport, closeTransport, err := newTransport(cfg, logger)
	if err != nil {
		return fmt.Errorf("mail transport: %w", err)
	}
	defer closeTransport()

	worker := riveradapter.NewNotificationWorker(
		oteladapter.NewTracingTransport(transport), logger, cfg.NotificationTimeout,
	)
	queue, err := riveradapter.Setup(ctx, store.DB(), worker, logger)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	// Detached so a signal leads to a graceful Stop rather than a hard one.
	if err := queue.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := queue.Stop(stopCtx); err != nil {
			logger.Error("river shutdown", "error", err)
		}
	}()

	notifier, err := oteladapter.NewTracingNotifier(riveradapter.NewDispatcher(queue, logger))
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	// --- Application ---
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithModerationEmail(cfg.ModerationEmail),
		app.WithAppURL(cfg.AppURL),
	}
	users := store.Users()
	listings := oteladapter.NewTracingListings(store.Listings())
	trials := oteladapter.NewTracingTrials(store.TrialRequests())
	reviews := oteladapter.NewTracingReviews(store.Reviews())

	svc := handler.Services{
		Accounts: app.NewAccountService(users, store.Accounts(), notifier, opts...),
		Listings: app.NewListingService(users, listings, fsm.NewListing(), notifier, opts...),
		Trials:   app.NewTrialService(users, listings, trials, fsm.NewTrial(), notifier, opts...),
		Reviews:  app.NewReviewService(users, listings, trials, reviews, fsm.NewReview(), notifier, opts...),
		Saves:    app.NewSaveService(users, listings, store.Saves(), opts...),
		Digest:   app.NewDigestService(store.Digest(), notifier, opts...),
		Logger:   logger,
	}

	digest := schedule.NewScheduler(svc.Digest, cfg.DigestSchedule, time.Minute, logger)
	if err := digest.Start(); err != nil {
		return err
	}
	defer func() { <-digest.Stop().Done() }()

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(otelchi.Middleware("kidvo", otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.OperationTimeout))
	router.Use(handler.Authenticate([]byte(cfg.JWTSecret)))

	api := humachi.New(router, huma.DefaultConfig("kidvo", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("kidvo listening", "port", cfg.Port, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("LOG_FORMAT: unsupported format %q (use \"json\" or \"text\")", format)
	}
}

func newTransport(cfg *config.Config, logger *slog.Logger) (domain.MailTransport, func(), error) {
	switch cfg.MailTransport {
	case "amqp":
		t, err := mail.NewAMQPTransport(cfg.RabbitMQURL, cfg.MailExchange)
		if err != nil {
			return nil, nil, err
		}
		return t, func() {
			if err := t.Close(); err != nil {
				logger.Error("amqp close", "error", err)
			}
		}, nil
	default:
		return mail.NewLogTransport(logger), func() {}, nil
	}
}
