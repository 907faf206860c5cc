package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/kidvo/internal/domain"
)

const tracerName = "github.com/neomorfeo/kidvo/internal/adapter/otel"

func fail(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TracingListings wraps a domain.ListingRepository with OpenTelemetry tracing.
type TracingListings struct {
	next   domain.ListingRepository
	tracer trace.Tracer
}

var _ domain.ListingRepository = (*TracingListings)(nil)

// NewTracingListings creates a tracing decorator around the given repository.
func NewTracingListings(next domain.ListingRepository) *TracingListings {
	return &TracingListings{next: next, tracer: otel.Tracer(tracerName)}
}

func (r *TracingListings) Create(ctx context.Context, listing domain.Listing) error {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.Create",
		trace.WithAttributes(
			attribute.String("listing.id", listing.ID),
			attribute.String("provider.id", listing.ProviderID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, listing)
	fail(span, err)
	return err
}

func (r *TracingListings) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.GetByID",
		trace.WithAttributes(attribute.String("listing.id", id)),
	)
	defer span.End()

	listing, err := r.next.GetByID(ctx, id)
	fail(span, err)
	return listing, err
}

func (r *TracingListings) List(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	listings, err := r.next.List(ctx, filter)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("result.count", len(listings)))
	return listings, nil
}

func (r *TracingListings) UpdateDetails(ctx context.Context, listing domain.Listing) error {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.UpdateDetails",
		trace.WithAttributes(attribute.String("listing.id", listing.ID)),
	)
	defer span.End()

	err := r.next.UpdateDetails(ctx, listing)
	fail(span, err)
	return err
}

func (r *TracingListings) CompareAndSwapStatus(ctx context.Context, change domain.ListingStatusChange) (domain.Listing, error) {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.CompareAndSwapStatus",
		trace.WithAttributes(
			attribute.String("listing.id", change.ID),
			attribute.String("status.from", string(change.From)),
			attribute.String("status.to", string(change.To)),
		),
	)
	defer span.End()

	listing, err := r.next.CompareAndSwapStatus(ctx, change)
	fail(span, err)
	return listing, err
}

// TracingTrials wraps a domain.TrialRequestRepository with OpenTelemetry tracing.
type TracingTrials struct {
	next   domain.TrialRequestRepository
	tracer trace.Tracer
}

var _ domain.TrialRequestRepository = (*TracingTrials)(nil)

func NewTracingTrials(next domain.TrialRequestRepository) *TracingTrials {
	return &TracingTrials{next: next, tracer: otel.Tracer(tracerName)}
}

func (r *TracingTrials) Create(ctx context.Context, req domain.TrialRequest) error {
	ctx, span := r.tracer.Start(ctx, "TrialRequestRepository.Create",
		trace.WithAttributes(
			attribute.String("trial_request.id", req.ID),
			attribute.String("listing.id", req.ListingID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, req)
	fail(span, err)
	return err
}

func (r *TracingTrials) GetByID(ctx context.Context, id string) (domain.TrialRequest, error) {
	ctx, span := r.tracer.Start(ctx, "TrialRequestRepository.GetByID",
		trace.WithAttributes(attribute.String("trial_request.id", id)),
	)
	defer span.End()

	req, err := r.next.GetByID(ctx, id)
	fail(span, err)
	return req, err
}

func (r *TracingTrials) ListByUser(ctx context.Context, userID string) ([]domain.TrialRequest, error) {
	ctx, span := r.tracer.Start(ctx, "TrialRequestRepository.ListByUser",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	reqs, err := r.next.ListByUser(ctx, userID)
	fail(span, err)
	return reqs, err
}

func (r *TracingTrials) ListByProvider(ctx context.Context, providerID string) ([]domain.TrialRequest, error) {
	ctx, span := r.tracer.Start(ctx, "TrialRequestRepository.ListByProvider",
		trace.WithAttributes(attribute.String("provider.id", providerID)),
	)
	defer span.End()

	reqs, err := r.next.ListByProvider(ctx, providerID)
	fail(span, err)
	return reqs, err
}

func (r *TracingTrials) HasConfirmed(ctx context.Context, userID, listingID string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "TrialRequestRepository.HasConfirmed",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("listing.id", listingID),
		),
	)
	defer span.End()

	ok, err := r.next.HasConfirmed(ctx, userID, listingID)
	fail(span, err)
	return ok, err
}

func (r *TracingTrials) TransitionStatus(ctx context.Context, change domain.TrialStatusChange) (domain.SeatChange, error) {
	ctx, span := r.tracer.Start(ctx, "TrialRequestRepository.TransitionStatus",
		trace.WithAttributes(
			attribute.String("trial_request.id", change.ID),
			attribute.String("status.from", string(change.From)),
			attribute.String("status.to", string(change.To)),
			attribute.Int("seat.delta", change.SeatDelta),
		),
	)
	defer span.End()

	seats, err := r.next.TransitionStatus(ctx, change)
	if err != nil {
		fail(span, err)
		return seats, err
	}
	span.SetAttributes(attribute.Bool("seat.clamped", seats.Clamped))
	return seats, nil
}

// TracingReviews wraps a domain.ReviewRepository with OpenTelemetry tracing.
type TracingReviews struct {
	next   domain.ReviewRepository
	tracer trace.Tracer
}

var _ domain.ReviewRepository = (*TracingReviews)(nil)

func NewTracingReviews(next domain.ReviewRepository) *TracingReviews {
	return &TracingReviews{next: next, tracer: otel.Tracer(tracerName)}
}

func (r *TracingReviews) Create(ctx context.Context, review domain.Review) error {
	ctx, span := r.tracer.Start(ctx, "ReviewRepository.Create",
		trace.WithAttributes(
			attribute.String("review.id", review.ID),
			attribute.String("listing.id", review.ListingID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, review)
	fail(span, err)
	return err
}

func (r *TracingReviews) GetByID(ctx context.Context, id string) (domain.Review, error) {
	ctx, span := r.tracer.Start(ctx, "ReviewRepository.GetByID",
		trace.WithAttributes(attribute.String("review.id", id)),
	)
	defer span.End()

	review, err := r.next.GetByID(ctx, id)
	fail(span, err)
	return review, err
}

func (r *TracingReviews) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ReviewRepository.Exists",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("listing.id", listingID),
		),
	)
	defer span.End()

	ok, err := r.next.Exists(ctx, userID, listingID)
	fail(span, err)
	return ok, err
}

func (r *TracingReviews) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	ctx, span := r.tracer.Start(ctx, "ReviewRepository.List",
		trace.WithAttributes(attribute.String("listing.id", filter.ListingID)),
	)
	defer span.End()

	reviews, err := r.next.List(ctx, filter)
	fail(span, err)
	return reviews, err
}

func (r *TracingReviews) CompareAndSwapStatus(ctx context.Context, change domain.ReviewStatusChange) error {
	ctx, span := r.tracer.Start(ctx, "ReviewRepository.CompareAndSwapStatus",
		trace.WithAttributes(
			attribute.String("review.id", change.ID),
			attribute.String("status.from", string(change.From)),
			attribute.String("status.to", string(change.To)),
		),
	)
	defer span.End()

	err := r.next.CompareAndSwapStatus(ctx, change)
	fail(span, err)
	return err
}
