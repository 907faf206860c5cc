package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/kidvo/internal/adapter/otel"
	"github.com/neomorfeo/kidvo/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Stub repositories ---

type stubListings struct {
	domain.ListingRepository
	listings map[string]domain.Listing
	casErr   error
}

func (s *stubListings) GetByID(_ context.Context, id string) (domain.Listing, error) {
	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, &domain.NotFoundError{Entity: "listing", ID: id}
	}
	return l, nil
}

func (s *stubListings) List(_ context.Context, _ domain.ListingFilter) ([]domain.Listing, error) {
	out := make([]domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	return out, nil
}

func (s *stubListings) CompareAndSwapStatus(_ context.Context, change domain.ListingStatusChange) (domain.Listing, error) {
	if s.casErr != nil {
		return domain.Listing{}, s.casErr
	}
	l := s.listings[change.ID]
	l.Status = change.To
	return l, nil
}

type stubTrials struct {
	domain.TrialRequestRepository
	seats domain.SeatChange
}

func (s *stubTrials) TransitionStatus(_ context.Context, _ domain.TrialStatusChange) (domain.SeatChange, error) {
	return s.seats, nil
}

type stubReviews struct {
	domain.ReviewRepository
	exists bool
}

func (s *stubReviews) Exists(_ context.Context, _, _ string) (bool, error) {
	return s.exists, nil
}

// --- Tests ---

func TestTracingListings_GetByID_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingListings(&stubListings{
		listings: map[string]domain.Listing{"l-1": {ID: "l-1", Title: "Judo"}},
	})

	got, err := repo.GetByID(context.Background(), "l-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Judo" {
		t.Errorf("Title = %q, want %q", got.Title, "Judo")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "ListingRepository.GetByID" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "ListingRepository.GetByID")
	}
	assertAttribute(t, spans[0], "listing.id", "l-1")
}

func TestTracingListings_GetByID_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingListings(&stubListings{listings: map[string]domain.Listing{}})

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingListings_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingListings(&stubListings{
		listings: map[string]domain.Listing{"l-1": {ID: "l-1"}, "l-2": {ID: "l-2"}},
	})

	listings, err := repo.List(context.Background(), domain.ListingFilter{Limit: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Errorf("got %d listings, want 2", len(listings))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	assertAttribute(t, spans[0], "result.count", "2")
	assertAttribute(t, spans[0], "filter.limit", "50")
}

func TestTracingListings_CompareAndSwap_RecordsTransition(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingListings(&stubListings{
		listings: map[string]domain.Listing{"l-1": {ID: "l-1", Status: domain.ListingPending}},
	})

	got, err := repo.CompareAndSwapStatus(context.Background(), domain.ListingStatusChange{
		ID: "l-1", From: domain.ListingPending, To: domain.ListingActive,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.ListingActive {
		t.Errorf("Status = %q, want %q", got.Status, domain.ListingActive)
	}

	spans := exporter.GetSpans()
	assertAttribute(t, spans[0], "status.from", "pending")
	assertAttribute(t, spans[0], "status.to", "active")
}

func TestTracingListings_CompareAndSwap_StaleIsError(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingListings(&stubListings{casErr: domain.ErrStaleState})

	_, err := repo.CompareAndSwapStatus(context.Background(), domain.ListingStatusChange{
		ID: "l-1", From: domain.ListingPending, To: domain.ListingActive,
	})
	if !errors.Is(err, domain.ErrStaleState) {
		t.Fatalf("expected ErrStaleState, got %v", err)
	}
	if exporter.GetSpans()[0].Status.Code != codes.Error {
		t.Error("expected error status on span")
	}
}

func TestTracingTrials_TransitionStatus_RecordsSeats(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingTrials(&stubTrials{
		seats: domain.SeatChange{Tracked: true, Available: 0, Clamped: true},
	})

	seats, err := repo.TransitionStatus(context.Background(), domain.TrialStatusChange{
		ID: "tr-1", From: domain.TrialPending, To: domain.TrialConfirmed, SeatDelta: -1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seats.Clamped {
		t.Error("expected clamped seat change to pass through")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "TrialRequestRepository.TransitionStatus" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	assertAttribute(t, spans[0], "seat.delta", "-1")
	assertAttribute(t, spans[0], "seat.clamped", "true")
}

func TestTracingReviews_Exists_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingReviews(&stubReviews{exists: true})

	ok, err := repo.Exists(context.Background(), "u-1", "l-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected Exists to pass through true")
	}

	spans := exporter.GetSpans()
	assertAttribute(t, spans[0], "user.id", "u-1")
	assertAttribute(t, spans[0], "listing.id", "l-1")
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
