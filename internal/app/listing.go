package app

import (
	"context"
	"errors"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// ListingInput holds the editable fields of a listing.
type ListingInput struct {
	CategoryID     string
	AreaID         string
	Title          string
	Description    *string
	AgeMin         int
	AgeMax         int
	PriceMonthly   int
	SpotsTotal     *int
	TrialAvailable bool
	Schedules      []domain.Schedule
}

// ListingService orchestrates the listing lifecycle.
type ListingService struct {
	base
	users     domain.UserRepository
	listings  domain.ListingRepository
	validator domain.TransitionValidator[domain.ListingStatus]
}

// NewListingService creates a service with the given adapters.
func NewListingService(
	users domain.UserRepository,
	listings domain.ListingRepository,
	validator domain.TransitionValidator[domain.ListingStatus],
	notifier domain.Notifier,
	opts ...Option,
) *ListingService {
	return &ListingService{
		base:      newBase(notifier, opts),
		users:     users,
		listings:  listings,
		validator: validator,
	}
}

// Create submits a new listing for moderation. Listings always start pending.
func (s *ListingService) Create(ctx context.Context, actor domain.Actor, in ListingInput) (domain.Listing, error) {
	if err := requireActor(actor); err != nil {
		return domain.Listing{}, err
	}
	provider, err := ownedProvider(ctx, s.users, actor)
	if err != nil {
		return domain.Listing{}, err
	}
	if provider == nil {
		return domain.Listing{}, &domain.ForbiddenError{Reason: "provider profile required"}
	}

	now := s.clock()
	listing := domain.Listing{
		ID:             newID(),
		ProviderID:     provider.ID,
		Status:         domain.ListingPending,
		TrialAvailable: in.TrialAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	applyListingInput(&listing, in)
	if in.SpotsTotal != nil {
		listing.Capacity = domain.Capacity{Total: in.SpotsTotal, Available: in.SpotsTotal}
	}

	if err := listing.Validate(); err != nil {
		return domain.Listing{}, err
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return domain.Listing{}, storeErr(ctx, "creating listing", err)
	}

	if s.moderationEmail != "" {
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateListingSubmit,
			Recipient: s.moderationEmail,
			Payload: map[string]any{
				"listing_id":     listing.ID,
				"listing_title":  listing.Title,
				"provider_name":  provider.DisplayName,
				"provider_email": provider.ContactEmail,
				"review_url":     s.link("/admin"),
			},
		})
	}

	return listing, nil
}

func applyListingInput(l *domain.Listing, in ListingInput) {
	l.CategoryID = in.CategoryID
	l.AreaID = in.AreaID
	l.Title = in.Title
	l.Description = in.Description
	l.AgeMin = in.AgeMin
	l.AgeMax = in.AgeMax
	l.PriceMonthly = in.PriceMonthly
	l.TrialAvailable = in.TrialAvailable
	l.Schedules = in.Schedules
}

// Get returns a listing. Listings that are not active are only visible to
// their owner and to admins; everyone else gets NotFound.
func (s *ListingService) Get(ctx context.Context, actor domain.Actor, id string) (domain.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, storeErr(ctx, "loading listing", err)
	}
	if listing.Visible() || actor.IsAdmin() {
		return listing, nil
	}
	if actor.Authenticated() {
		provider, err := ownedProvider(ctx, s.users, actor)
		if err != nil {
			return domain.Listing{}, err
		}
		if provider != nil && provider.ID == listing.ProviderID {
			return listing, nil
		}
	}
	return domain.Listing{}, &domain.NotFoundError{Entity: "listing", ID: id}
}

// Browse returns active listings matching filter.
func (s *ListingService) Browse(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	active := domain.ListingActive
	filter.Status = &active
	listings, err := s.listings.List(ctx, filter)
	if err != nil {
		return nil, storeErr(ctx, "browsing listings", err)
	}
	return listings, nil
}

// ListMine returns every listing owned by the caller's provider profile.
func (s *ListingService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Listing, error) {
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
	listings, err := s.listings.List(ctx, domain.ListingFilter{ProviderID: provider.ID})
	if err != nil {
		return nil, storeErr(ctx, "listing own listings", err)
	}
	return listings, nil
}

// ListForModeration returns listings in any status for admins.
func (s *ListingService) ListForModeration(ctx context.Context, actor domain.Actor, status *domain.ListingStatus) ([]domain.Listing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	listings, err := s.listings.List(ctx, domain.ListingFilter{Status: status})
	if err != nil {
		return nil, storeErr(ctx, "listing for moderation", err)
	}
	return listings, nil
}

// Update edits a listing's details. Status is never changed here. Seats
// already taken are preserved when spots_total changes.
func (s *ListingService) Update(ctx context.Context, actor domain.Actor, id string, in ListingInput) (domain.Listing, error) {
	listing, _, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return domain.Listing{}, err
	}

	applyListingInput(&listing, in)
	listing.Capacity = domain.Capacity{Total: in.SpotsTotal, Available: in.SpotsTotal}
	listing.UpdatedAt = s.clock()

	if err := listing.Validate(); err != nil {
		return domain.Listing{}, err
	}

	if err := s.listings.UpdateDetails(ctx, listing); err != nil {
		return domain.Listing{}, storeErr(ctx, "updating listing", err)
	}

	updated, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, storeErr(ctx, "reloading listing", err)
	}
	return updated, nil
}

func (s *ListingService) loadOwned(ctx context.Context, actor domain.Actor, id string) (domain.Listing, *domain.Provider, error) {
	if err := requireActor(actor); err != nil {
		return domain.Listing{}, nil, err
	}
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, nil, storeErr(ctx, "loading listing", err)
	}
	provider, err := ownedProvider(ctx, s.users, actor)
	if err != nil {
		return domain.Listing{}, nil, err
	}
	if provider == nil || provider.ID != listing.ProviderID {
		return domain.Listing{}, nil, &domain.ForbiddenError{Reason: "only the owning provider may edit this listing"}
	}
	return listing, provider, nil
}

// Transition moves a listing to target. The event is chosen from the target
// and the caller: admins approve (active) and decline (draft); the owning
// provider pauses (paused) and unpauses (active).
func (s *ListingService) Transition(ctx context.Context, actor domain.Actor, id string, target domain.ListingStatus) (domain.Listing, error) {
	if err := requireActor(actor); err != nil {
		return domain.Listing{}, err
	}

	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, storeErr(ctx, "loading listing", err)
	}

	provider, err := ownedProvider(ctx, s.users, actor)
	if err != nil {
		return domain.Listing{}, err
	}
	isOwner := provider != nil && provider.ID == listing.ProviderID

	event, err := listingEvent(actor, isOwner, listing, target)
	if err != nil {
		return domain.Listing{}, err
	}

	dst, err := s.validator.Apply(ctx, listing.Status, event)
	if err != nil {
		return domain.Listing{}, err
	}

	// The owner of a listing is loaded before the write so that a failure
	// here cannot leave a committed transition without its notification.
	owner := provider
	if !isOwner && (event == domain.EventApprove || event == domain.EventDecline) {
		p, err := s.users.GetProvider(ctx, listing.ProviderID)
		if err != nil {
			return domain.Listing{}, storeErr(ctx, "loading listing provider", err)
		}
		owner = &p
	}

	updated, err := s.listings.CompareAndSwapStatus(ctx, domain.ListingStatusChange{
		ID:   listing.ID,
		From: listing.Status,
		To:   dst,
		At:   s.clock(),
	})
	if errors.Is(err, domain.ErrStaleState) {
		return domain.Listing{}, lostRace("listing", event, string(listing.Status))
	}
	if err != nil {
		return domain.Listing{}, storeErr(ctx, "updating listing status", err)
	}

	s.logger.InfoContext(ctx, "listing transitioned",
		"listing_id", listing.ID,
		"event", event,
		"from", listing.Status,
		"to", updated.Status,
		"actor_id", actor.UserID,
	)

	switch {
	case event == domain.EventApprove && listing.Status != domain.ListingActive:
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateListingApproved,
			Recipient: owner.ContactEmail,
			Payload: map[string]any{
				"listing_id":    updated.ID,
				"listing_title": updated.Title,
				"provider_name": owner.DisplayName,
				"listing_url":   s.link("/browse/" + updated.ID),
			},
		})
	case event == domain.EventDecline && listing.Status == domain.ListingPending:
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateListingRejected,
			Recipient: owner.ContactEmail,
			Payload: map[string]any{
				"listing_id":    updated.ID,
				"listing_title": updated.Title,
				"provider_name": owner.DisplayName,
				"edit_url":      s.link("/listings/" + updated.ID + "/edit"),
			},
		})
	}

	return updated, nil
}

// listingEvent maps a requested target status to a lifecycle event.
func listingEvent(actor domain.Actor, isOwner bool, listing domain.Listing, target domain.ListingStatus) (domain.Event, error) {
	forbidden := func(reason string) (domain.Event, error) {
		return "", &domain.ForbiddenError{Reason: reason}
	}

	switch target {
	case domain.ListingActive:
		switch {
		case actor.IsAdmin():
			return domain.EventApprove, nil
		case isOwner:
			return domain.EventUnpause, nil
		}
		return forbidden("only an admin or the owning provider may activate this listing")
	case domain.ListingPaused:
		if isOwner {
			return domain.EventPause, nil
		}
		return forbidden("only the owning provider may pause this listing")
	case domain.ListingDraft:
		if actor.IsAdmin() {
			return domain.EventDecline, nil
		}
		return forbidden("only an admin may decline this listing")
	default:
		return "", &domain.TransitionError{
			Entity:  "listing",
			Event:   domain.Event("set_" + string(target)),
			Current: string(listing.Status),
		}
	}
}
