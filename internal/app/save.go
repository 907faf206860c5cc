package app

import (
	"context"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// SaveService toggles and lists saved listings.
type SaveService struct {
	base
	users    domain.UserRepository
	listings domain.ListingRepository
	saves    domain.SaveRepository
}

// NewSaveService creates a service with the given adapters.
func NewSaveService(
	users domain.UserRepository,
	listings domain.ListingRepository,
	saves domain.SaveRepository,
	opts ...Option,
) *SaveService {
	return &SaveService{
		base:     newBase(nil, opts),
		users:    users,
		listings: listings,
		saves:    saves,
	}
}

// Toggle saves the listing, or removes the matching saves when present.
// Without a child every save the caller holds for the listing is removed.
func (s *SaveService) Toggle(ctx context.Context, actor domain.Actor, listingID string, childID *string) (bool, error) {
	if _, err := loadProfile(ctx, s.users, actor); err != nil {
		return false, err
	}
	if err := required("listing_id", listingID); err != nil {
		return false, err
	}
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return false, storeErr(ctx, "loading listing", err)
	}
	if childID != nil {
		child, err := s.users.GetChild(ctx, *childID)
		if err != nil {
			return false, storeErr(ctx, "loading child", err)
		}
		if child.UserID != actor.UserID {
			return false, &domain.ForbiddenError{Reason: "child belongs to another user"}
		}
	}

	saved, err := s.saves.Toggle(ctx, domain.Save{
		ID:        newID(),
		UserID:    actor.UserID,
		ListingID: listingID,
		ChildID:   childID,
		CreatedAt: s.clock(),
	})
	if err != nil {
		return false, storeErr(ctx, "toggling save", err)
	}
	return saved, nil
}

// List returns the caller's saves, newest first.
func (s *SaveService) List(ctx context.Context, actor domain.Actor) ([]domain.Save, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	saves, err := s.saves.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(ctx, "listing saves", err)
	}
	return saves, nil
}
