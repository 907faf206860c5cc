package app

import (
	"context"
	"errors"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// ReviewInput holds the fields of a new review.
type ReviewInput struct {
	ListingID string
	Rating    int
	Comment   *string
}

// ReviewService orchestrates review submission and moderation.
type ReviewService struct {
	base
	users     domain.UserRepository
	listings  domain.ListingRepository
	trials    domain.TrialRequestRepository
	reviews   domain.ReviewRepository
	validator domain.TransitionValidator[domain.ReviewStatus]
}

// NewReviewService creates a service with the given adapters.
func NewReviewService(
	users domain.UserRepository,
	listings domain.ListingRepository,
	trials domain.TrialRequestRepository,
	reviews domain.ReviewRepository,
	validator domain.TransitionValidator[domain.ReviewStatus],
	notifier domain.Notifier,
	opts ...Option,
) *ReviewService {
	return &ReviewService{
		base:      newBase(notifier, opts),
		users:     users,
		listings:  listings,
		trials:    trials,
		reviews:   reviews,
		validator: validator,
	}
}

// Create submits a review for moderation. Only parents with a confirmed
// trial for the listing may review it, once.
func (s *ReviewService) Create(ctx context.Context, actor domain.Actor, in ReviewInput) (domain.Review, error) {
	if err := requireActor(actor); err != nil {
		return domain.Review{}, err
	}
	if err := required("listing_id", in.ListingID); err != nil {
		return domain.Review{}, err
	}
	if err := domain.ValidateRating(in.Rating); err != nil {
		return domain.Review{}, err
	}

	user, err := loadProfile(ctx, s.users, actor)
	if err != nil {
		return domain.Review{}, err
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return domain.Review{}, storeErr(ctx, "loading listing", err)
	}

	eligible, err := s.trials.HasConfirmed(ctx, actor.UserID, listing.ID)
	if err != nil {
		return domain.Review{}, storeErr(ctx, "checking review eligibility", err)
	}
	if !eligible {
		return domain.Review{}, &domain.ForbiddenError{Reason: "a confirmed trial is required to review this listing"}
	}

	exists, err := s.reviews.Exists(ctx, actor.UserID, listing.ID)
	if err != nil {
		return domain.Review{}, storeErr(ctx, "checking existing review", err)
	}
	if exists {
		return domain.Review{}, &domain.ConflictError{Reason: "you have already reviewed this listing"}
	}

	review := domain.Review{
		ID:         newID(),
		UserID:     actor.UserID,
		ListingID:  listing.ID,
		ProviderID: listing.ProviderID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		Status:     domain.ReviewPending,
		CreatedAt:  s.clock(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return domain.Review{}, storeErr(ctx, "creating review", err)
	}

	if s.moderationEmail != "" {
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateReviewSubmit,
			Recipient: s.moderationEmail,
			Payload: map[string]any{
				"review_id":     review.ID,
				"listing_id":    listing.ID,
				"listing_title": listing.Title,
				"parent_name":   displayName(user),
				"rating":        review.Rating,
				"review_url":    s.link("/admin"),
			},
		})
	}

	return review, nil
}

// Moderate approves or rejects a pending review. Admin only.
func (s *ReviewService) Moderate(ctx context.Context, actor domain.Actor, id string, action domain.Event) (domain.Review, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Review{}, err
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return domain.Review{}, storeErr(ctx, "loading review", err)
	}

	dst, err := s.validator.Apply(ctx, review.Status, action)
	if err != nil {
		return domain.Review{}, err
	}

	parent, err := s.users.GetUser(ctx, review.UserID)
	if err != nil {
		return domain.Review{}, storeErr(ctx, "loading reviewer", err)
	}
	listing, err := s.listings.GetByID(ctx, review.ListingID)
	if err != nil {
		return domain.Review{}, storeErr(ctx, "loading listing", err)
	}
	var provider domain.Provider
	if dst == domain.ReviewApproved {
		provider, err = s.users.GetProvider(ctx, review.ProviderID)
		if err != nil {
			return domain.Review{}, storeErr(ctx, "loading provider", err)
		}
	}

	at := s.clock()
	err = s.reviews.CompareAndSwapStatus(ctx, domain.ReviewStatusChange{
		ID:   review.ID,
		From: review.Status,
		To:   dst,
		At:   at,
	})
	if errors.Is(err, domain.ErrStaleState) {
		return domain.Review{}, lostRace("review", action, string(review.Status))
	}
	if err != nil {
		return domain.Review{}, storeErr(ctx, "updating review status", err)
	}

	from := review.Status
	review.Status = dst
	review.ModeratedAt = &at

	s.logger.InfoContext(ctx, "review moderated",
		"review_id", review.ID,
		"listing_id", review.ListingID,
		"event", action,
		"from", from,
		"to", dst,
		"actor_id", actor.UserID,
	)

	switch dst {
	case domain.ReviewApproved:
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateReviewApproved,
			Recipient: parent.Email,
			Payload: map[string]any{
				"review_id":     review.ID,
				"listing_title": listing.Title,
				"listing_url":   s.link("/browse/" + listing.ID),
			},
		})
		payload := map[string]any{
			"review_id":     review.ID,
			"listing_id":    listing.ID,
			"listing_title": listing.Title,
			"parent_name":   displayName(parent),
			"rating":        review.Rating,
		}
		if review.Comment != nil {
			payload["comment"] = *review.Comment
		}
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateReviewPublished,
			Recipient: provider.ContactEmail,
			Payload:   payload,
		})
	case domain.ReviewRejected:
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateReviewRejected,
			Recipient: parent.Email,
			Payload: map[string]any{
				"review_id":     review.ID,
				"listing_title": listing.Title,
			},
		})
	}

	return review, nil
}

// ListPending returns the moderation queue, newest first. Admin only.
func (s *ReviewService) ListPending(ctx context.Context, actor domain.Actor) ([]domain.Review, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	pending := domain.ReviewPending
	reviews, err := s.reviews.List(ctx, domain.ReviewFilter{Status: &pending})
	if err != nil {
		return nil, storeErr(ctx, "listing pending reviews", err)
	}
	return reviews, nil
}

// ListApproved returns the published reviews of a listing.
func (s *ReviewService) ListApproved(ctx context.Context, listingID string) ([]domain.Review, error) {
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return nil, storeErr(ctx, "loading listing", err)
	}
	approved := domain.ReviewApproved
	reviews, err := s.reviews.List(ctx, domain.ReviewFilter{Status: &approved, ListingID: listingID})
	if err != nil {
		return nil, storeErr(ctx, "listing reviews", err)
	}
	return reviews, nil
}
