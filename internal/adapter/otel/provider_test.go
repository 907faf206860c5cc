package otel_test

import (
	"context"
	"path/filepath"
	"testing"

	adapter "github.com/neomorfeo/kidvo/internal/adapter/otel"
)

func TestSetup_StdoutExporter(t *testing.T) {
	providers, err := adapter.Setup(context.Background(), adapter.Config{
		ServiceName:    "test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		Exporter:       adapter.ExporterStdout,
		SampleRatio:    1,
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if err := providers.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestSetup_NoneExporter(t *testing.T) {
	providers, err := adapter.Setup(context.Background(), adapter.Config{Exporter: adapter.ExporterNone})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := providers.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestSetup_InvalidExporter(t *testing.T) {
	_, err := adapter.Setup(context.Background(), adapter.Config{
		ServiceName: "test",
		Exporter:    "invalid",
	})
	if err == nil {
		t.Fatal("expected error for invalid exporter")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg := adapter.ConfigFromEnv()

	if cfg.ServiceName != "kidvo" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "kidvo")
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Exporter != adapter.ExporterStdout {
		t.Errorf("Exporter = %q, want %q", cfg.Exporter, adapter.ExporterStdout)
	}
	if !cfg.Insecure {
		t.Error("development should use insecure OTLP")
	}
	if cfg.SampleRatio != 1 {
		t.Errorf("SampleRatio = %v, want 1", cfg.SampleRatio)
	}
}

func TestConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "kidvo-staging")
	t.Setenv("OTEL_ENVIRONMENT", "production")
	t.Setenv("OTEL_EXPORTER", "otlp")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")

	cfg := adapter.ConfigFromEnv()

	if cfg.ServiceName != "kidvo-staging" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "kidvo-staging")
	}
	if cfg.Insecure {
		t.Error("production should not use insecure OTLP")
	}
	if cfg.SampleRatio != 0.25 {
		t.Errorf("SampleRatio = %v, want 0.25", cfg.SampleRatio)
	}
}

func TestConfigFromEnv_BadRatioFallsBack(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATIO", "2")

	if got := adapter.ConfigFromEnv().SampleRatio; got != 1 {
		t.Errorf("SampleRatio = %v, want 1", got)
	}
}

func TestOpenDB_AppliesPragmas(t *testing.T) {
	db, err := adapter.OpenDB(filepath.Join(t.TempDir(), "kidvo.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestOpenDB_BadPath(t *testing.T) {
	if _, err := adapter.OpenDB("/nonexistent/dir/kidvo.db"); err == nil {
		t.Fatal("expected error for unreachable path")
	}
}
