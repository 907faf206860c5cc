package app

import (
	"context"
	"time"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// DigestWindow is how far back a digest run looks for new listings.
const DigestWindow = 24 * time.Hour

// DigestResult summarises one digest run.
type DigestResult struct {
	Listings int
	Sent     int
}

// DigestService sends each parent one summary of the listings newly
// published by providers they follow.
type DigestService struct {
	base
	digest domain.DigestRepository
}

// NewDigestService creates a service with the given adapters.
func NewDigestService(digest domain.DigestRepository, notifier domain.Notifier, opts ...Option) *DigestService {
	return &DigestService{
		base:   newBase(notifier, opts),
		digest: digest,
	}
}

// Run sends the digest for the window ending now. A parent follows a
// provider by having saved any of its listings.
func (s *DigestService) Run(ctx context.Context) (DigestResult, error) {
	since := s.clock().Add(-DigestWindow)

	listings, err := s.digest.PublishedSince(ctx, since)
	if err != nil {
		return DigestResult{}, storeErr(ctx, "loading new listings", err)
	}
	result := DigestResult{Listings: len(listings)}
	if len(listings) == 0 {
		s.logger.InfoContext(ctx, "digest skipped: no new listings", "since", since)
		return result, nil
	}

	byProvider := make(map[string][]domain.DigestListing)
	var providerIDs []string
	for _, l := range listings {
		if _, ok := byProvider[l.ProviderID]; !ok {
			providerIDs = append(providerIDs, l.ProviderID)
		}
		byProvider[l.ProviderID] = append(byProvider[l.ProviderID], l)
	}

	followers, err := s.digest.Followers(ctx, providerIDs)
	if err != nil {
		return DigestResult{}, storeErr(ctx, "loading followers", err)
	}

	// Followers are ordered by user, so each parent's rows are contiguous.
	var parents []domain.DigestRecipient
	followed := make(map[string][]string)
	for _, f := range followers {
		if _, ok := followed[f.UserID]; !ok {
			parents = append(parents, f)
		}
		followed[f.UserID] = append(followed[f.UserID], f.ProviderID)
	}

	for _, parent := range parents {
		var items []map[string]any
		for _, providerID := range followed[parent.UserID] {
			for _, l := range byProvider[providerID] {
				items = append(items, map[string]any{
					"listing_id":      l.ListingID,
					"title":           l.Title,
					"provider_name":   l.ProviderName,
					"category_name":   l.CategoryName,
					"is_new_provider": l.IsNewProvider,
					"listing_url":     s.link("/browse/" + l.ListingID),
				})
			}
		}
		if len(items) == 0 {
			continue
		}

		name := parent.FullName
		if name == "" {
			name = parent.Email
		}
		s.notify(ctx, domain.Notification{
			Template:  domain.TemplateDigest,
			Recipient: parent.Email,
			Payload: map[string]any{
				"parent_name": name,
				"listings":    items,
			},
		})
		result.Sent++
	}

	s.logger.InfoContext(ctx, "digest sent",
		"listings", result.Listings,
		"recipients", result.Sent,
	)
	return result, nil
}

// RunAs triggers a digest run on behalf of an admin.
func (s *DigestService) RunAs(ctx context.Context, actor domain.Actor) (DigestResult, error) {
	if err := requireAdmin(actor); err != nil {
		return DigestResult{}, err
	}
	return s.Run(ctx)
}
