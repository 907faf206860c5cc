package app

import (
	"context"
	"errors"
	"strings"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// TrialInput holds the fields of a new trial request.
type TrialInput struct {
	ListingID    string
	ChildID      *string
	PreferredDay *int
	Message      *string
}

// TrialService orchestrates the trial-request lifecycle and the capacity
// changes it causes.
type TrialService struct {
	base
	users     domain.UserRepository
	listings  domain.ListingRepository
	trials    domain.TrialRequestRepository
	validator domain.TransitionValidator[domain.TrialStatus]
}

// NewTrialService creates a service with the given adapters.
func NewTrialService(
	users domain.UserRepository,
	listings domain.ListingRepository,
	trials domain.TrialRequestRepository,
	validator domain.TransitionValidator[domain.TrialStatus],
	notifier domain.Notifier,
	opts ...Option,
) *TrialService {
	return &TrialService{
		base:      newBase(notifier, opts),
		users:     users,
		listings:  listings,
		trials:    trials,
		validator: validator,
	}
}

// Create records a pending trial request and tells the provider about it.
func (s *TrialService) Create(ctx context.Context, actor domain.Actor, in TrialInput) (domain.TrialRequest, error) {
	if err := requireActor(actor); err != nil {
		return domain.TrialRequest{}, err
	}
	if err := required("listing_id", in.ListingID); err != nil {
		return domain.TrialRequest{}, err
	}

	var dayName string
	if in.PreferredDay != nil {
		name, ok := domain.DayName(*in.PreferredDay)
		if !ok {
			return domain.TrialRequest{}, &domain.ValidationError{Field: "preferred_day", Reason: "must be between 0 and 6"}
		}
		dayName = name
	}
	if in.Message != nil && strings.TrimSpace(*in.Message) == "" {
		in.Message = nil
	}

	user, err := loadProfile(ctx, s.users, actor)
	if err != nil {
		return domain.TrialRequest{}, err
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return domain.TrialRequest{}, storeErr(ctx, "loading listing", err)
	}
	if err := listing.AcceptsTrialRequests(); err != nil {
		return domain.TrialRequest{}, err
	}

	if in.ChildID != nil {
		child, err := s.users.GetChild(ctx, *in.ChildID)
		if err != nil {
			return domain.TrialRequest{}, storeErr(ctx, "loading child", err)
		}
		if child.UserID != actor.UserID {
			return domain.TrialRequest{}, &domain.ForbiddenError{Reason: "child belongs to another user"}
		}
	}

	provider, err := s.users.GetProvider(ctx, listing.ProviderID)
	if err != nil {
		return domain.TrialRequest{}, storeErr(ctx, "loading listing provider", err)
	}

	req := domain.TrialRequest{
		ID:           newID(),
		UserID:       actor.UserID,
		ListingID:    listing.ID,
		ChildID:      in.ChildID,
		PreferredDay: in.PreferredDay,
		Message:      in.Message,
		Status:       domain.TrialPending,
		CreatedAt:    s.clock(),
	}
	if err := s.trials.Create(ctx, req); err != nil {
		return domain.TrialRequest{}, storeErr(ctx, "creating trial request", err)
	}

	payload := map[string]any{
		"trial_request_id": req.ID,
		"listing_id":       listing.ID,
		"listing_title":    listing.Title,
		"parent_name":      displayName(user),
		"parent_email":     user.Email,
		"inbox_url":        s.link("/provider/requests"),
	}
	if dayName != "" {
		payload["preferred_day"] = dayName
	}
	if req.Message != nil {
		payload["message"] = *req.Message
	}
	s.notify(ctx, domain.Notification{
		Template:  domain.TemplateTrialRequested,
		Recipient: provider.ContactEmail,
		Payload:   payload,
	})

	return req, nil
}

// Transition applies action to a trial request. confirm and decline belong
// to the listing's provider, cancel to the requesting parent. A confirmation
// takes one seat in the same write that changes the status.
func (s *TrialService) Transition(ctx context.Context, actor domain.Actor, id string, action domain.Event) (domain.TrialRequest, error) {
	if err := requireActor(actor); err != nil {
		return domain.TrialRequest{}, err
	}

	req, err := s.trials.GetByID(ctx, id)
	if err != nil {
		return domain.TrialRequest{}, storeErr(ctx, "loading trial request", err)
	}

	listing, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return domain.TrialRequest{}, storeErr(ctx, "loading listing", err)
	}

	var provider *domain.Provider
	switch action {
	case domain.EventConfirm, domain.EventDecline:
		provider, err = ownedProvider(ctx, s.users, actor)
		if err != nil {
			return domain.TrialRequest{}, err
		}
		if provider == nil || provider.ID != listing.ProviderID {
			return domain.TrialRequest{}, &domain.ForbiddenError{Reason: "only the listing's provider may respond to this request"}
		}
	case domain.EventCancel:
		if req.UserID != actor.UserID {
			return domain.TrialRequest{}, &domain.ForbiddenError{Reason: "only the requesting parent may cancel this request"}
		}
	default:
		return domain.TrialRequest{}, &domain.ValidationError{Field: "action", Reason: "must be confirm, decline or cancel"}
	}

	dst, err := s.validator.Apply(ctx, req.Status, action)
	if err != nil {
		return domain.TrialRequest{}, err
	}

	// The parent is loaded before the write so the notification can always
	// be addressed once the change has committed.
	var parent domain.User
	if action != domain.EventCancel {
		parent, err = s.users.GetUser(ctx, req.UserID)
		if err != nil {
			return domain.TrialRequest{}, storeErr(ctx, "loading requester", err)
		}
	}

	change := domain.TrialStatusChange{
		ID:   req.ID,
		From: req.Status,
		To:   dst,
		At:   s.clock(),
	}
	if dst == domain.TrialConfirmed {
		change.SeatDelta = -1
	}

	seats, err := s.trials.TransitionStatus(ctx, change)
	if errors.Is(err, domain.ErrStaleState) {
		return domain.TrialRequest{}, lostRace("trial_request", action, string(req.Status))
	}
	if err != nil {
		return domain.TrialRequest{}, storeErr(ctx, "updating trial request status", err)
	}

	if seats.Clamped {
		s.logger.WarnContext(ctx, "capacity adjustment clamped",
			"listing_id", listing.ID,
			"trial_request_id", req.ID,
			"delta", change.SeatDelta,
			"spots_available", seats.Available,
		)
	}

	from := req.Status
	req.Status = dst
	if req.RespondedAt == nil {
		at := change.At
		req.RespondedAt = &at
	}

	s.logger.InfoContext(ctx, "trial request transitioned",
		"trial_request_id", req.ID,
		"listing_id", listing.ID,
		"event", action,
		"from", from,
		"to", dst,
		"actor_id", actor.UserID,
	)

	switch action {
	case domain.EventConfirm:
		payload := map[string]any{
			"trial_request_id": req.ID,
			"listing_id":       listing.ID,
			"listing_title":    listing.Title,
			"provider_name":    provider.DisplayName,
			"provider_email":   provider.ContactEmail,
		}
		if provider.ContactPhone != nil {
			payload["provider_phone"] = *provider.ContactPhone
		}
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateTrialConfirmed,
			Recipient: parent.Email,
			Payload:   payload,
		})
	case domain.EventDecline:
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateTrialDeclined,
			Recipient: parent.Email,
			Payload: map[string]any{
				"trial_request_id": req.ID,
				"listing_id":       listing.ID,
				"listing_title":    listing.Title,
				"provider_name":    provider.DisplayName,
				"browse_url":       s.link("/browse"),
			},
		})
	}

	return req, nil
}

// ListMine returns the caller's trial requests, newest first.
func (s *TrialService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.TrialRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	reqs, err := s.trials.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(ctx, "listing trial requests", err)
	}
	return reqs, nil
}

// Inbox returns the trial requests addressed to the caller's provider
// profile, newest first.
func (s *TrialService) Inbox(ctx context.Context, actor domain.Actor) ([]domain.TrialRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	provider, err := ownedProvider(ctx, s.users, actor)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, &domain.ForbiddenError{Reason: "provider profile required"}
	}
	reqs, err := s.trials.ListByProvider(ctx, provider.ID)
	if err != nil {
		return nil, storeErr(ctx, "listing provider inbox", err)
	}
	return reqs, nil
}
