package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// DigestRepository implements domain.DigestRepository using SQLite.
type DigestRepository struct {
	db *sql.DB
}

var _ domain.DigestRepository = (*DigestRepository)(nil)

// PublishedSince returns active listings first published at or after since.
// A provider is new when none of its active listings was published earlier.
func (r *DigestRepository) PublishedSince(ctx context.Context, since time.Time) ([]domain.DigestListing, error) {
	cutoff := formatTime(since)
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.title, l.provider_id, p.display_name, c.name,
		   NOT EXISTS (
		     SELECT 1 FROM listings o
		     WHERE o.provider_id = l.provider_id AND o.status = 'active' AND o.published_at < ?
		   )
		 FROM listings l
		 JOIN providers p ON p.id = l.provider_id
		 JOIN categories c ON c.id = l.category_id
		 WHERE l.status = 'active' AND l.published_at >= ?
		 ORDER BY l.published_at DESC`,
		cutoff, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying new listings: %w", err)
	}
	defer rows.Close()

	var out []domain.DigestListing
	for rows.Next() {
		var d domain.DigestListing
		var isNew int
		if err := rows.Scan(&d.ListingID, &d.Title, &d.ProviderID, &d.ProviderName, &d.CategoryName, &isNew); err != nil {
			return nil, fmt.Errorf("scanning digest listing: %w", err)
		}
		d.IsNewProvider = isNew != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// Followers returns one row per (parent, provider) pair where the parent
// saved any listing of the provider. Only parent roles receive the digest.
func (r *DigestRepository) Followers(ctx context.Context, providerIDs []string) ([]domain.DigestRecipient, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(providerIDs)+2)
	for _, id := range providerIDs {
		args = append(args, id)
	}
	args = append(args, string(domain.RoleParent), string(domain.RoleBoth))

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT u.id, u.email, u.full_name, l.provider_id
		 FROM saves s
		 JOIN listings l ON l.id = s.listing_id
		 JOIN users u ON u.id = s.user_id
		 WHERE l.provider_id IN (`+placeholders(len(providerIDs))+`)
		   AND u.role IN (?, ?)
		 ORDER BY u.id, l.provider_id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying followers: %w", err)
	}
	defer rows.Close()

	var out []domain.DigestRecipient
	for rows.Next() {
		var d domain.DigestRecipient
		if err := rows.Scan(&d.UserID, &d.Email, &d.FullName, &d.ProviderID); err != nil {
			return nil, fmt.Errorf("scanning follower: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
