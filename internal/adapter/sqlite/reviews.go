package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository using SQLite.
type ReviewRepository struct {
	db *sql.DB
}

var _ domain.ReviewRepository = (*ReviewRepository)(nil)

const reviewColumns = `id, user_id, listing_id, provider_id, rating, comment, status, created_at, moderated_at`

// Create relies on UNIQUE (user_id, listing_id) so concurrent duplicate
// submissions resolve to exactly one row.
func (r *ReviewRepository) Create(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rv.ID, rv.UserID, rv.ListingID, rv.ProviderID, rv.Rating, nullableString(rv.Comment),
		string(rv.Status), formatTime(rv.CreatedAt), nil,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: "you have already reviewed this listing"}
		}
		if isForeignKeyViolation(err) {
			return &domain.NotFoundError{Entity: "listing", ID: rv.ListingID}
		}
		return fmt.Errorf("inserting review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, &domain.NotFoundError{Entity: "review", ID: id}
	}
	return rv, err
}

func (r *ReviewRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE user_id = ? AND listing_id = ?`, userID, listingID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking review existence: %w", err)
	}
	return n > 0, nil
}

// List returns reviews newest first.
func (r *ReviewRepository) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE 1 = 1`
	var args []any

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.ListingID != "" {
		query += ` AND listing_id = ?`
		args = append(args, filter.ListingID)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}

func (r *ReviewRepository) CompareAndSwapStatus(ctx context.Context, change domain.ReviewStatusChange) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET status = ?, moderated_at = ? WHERE id = ? AND status = ?`,
		string(change.To), formatTime(change.At), change.ID, string(change.From),
	)
	if err != nil {
		return fmt.Errorf("updating review status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return staleOrMissing(ctx, r.db, "reviews", "review", change.ID)
	}
	return nil
}

func scanReview(row scanner) (domain.Review, error) {
	var rv domain.Review
	var comment, moderatedAt sql.NullString
	var status, createdAt string

	err := row.Scan(&rv.ID, &rv.UserID, &rv.ListingID, &rv.ProviderID, &rv.Rating, &comment,
		&status, &createdAt, &moderatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, err
		}
		return domain.Review{}, fmt.Errorf("scanning review: %w", err)
	}

	rv.Comment = stringPtr(comment)
	rv.Status = domain.ReviewStatus(status)
	rv.CreatedAt = parseTime(createdAt)
	rv.ModeratedAt = timePtr(moderatedAt)
	return rv, nil
}
