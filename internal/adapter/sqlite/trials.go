package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// TrialRequestRepository implements domain.TrialRequestRepository using SQLite.
type TrialRequestRepository struct {
	db *sql.DB
}

var _ domain.TrialRequestRepository = (*TrialRequestRepository)(nil)

const trialColumns = `t.id, t.user_id, t.listing_id, t.child_id, t.preferred_day, t.message,
	t.status, t.created_at, t.responded_at`

func (r *TrialRequestRepository) Create(ctx context.Context, t domain.TrialRequest) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO trial_requests (id, user_id, listing_id, child_id, preferred_day, message, status, created_at)
			 SELECT ?, ?, l.id, ?, ?, ?, ?, ?
			 FROM listings l
			 WHERE l.id = ? AND l.status = 'active' AND l.trial_available = 1
			   AND (l.spots_available IS NULL OR l.spots_available > 0)`,
			t.ID, t.UserID, nullableString(t.ChildID), nullableInt(t.PreferredDay),
			nullableString(t.Message), string(t.Status), formatTime(t.CreatedAt),
			t.ListingID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				if t.ChildID != nil {
					return &domain.NotFoundError{Entity: "child", ID: *t.ChildID}
				}
				return &domain.NotFoundError{Entity: "user", ID: t.UserID}
			}
			return fmt.Errorf("inserting trial request: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return refusedTrial(ctx, tx, t.ListingID)
		}
		return nil
	})
}

// refusedTrial explains why the conditional insert matched no listing.
func refusedTrial(ctx context.Context, tx *sql.Tx, listingID string) error {
	var (
		l         domain.Listing
		status    string
		trial     int
		available sql.NullInt64
	)
	err := tx.QueryRowContext(ctx,
		`SELECT status, trial_available, spots_available FROM listings WHERE id = ?`, listingID,
	).Scan(&status, &trial, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Entity: "listing", ID: listingID}
	}
	if err != nil {
		return fmt.Errorf("loading listing state: %w", err)
	}

	l.Status = domain.ListingStatus(status)
	l.TrialAvailable = trial != 0
	l.Capacity.Available = intPtr(available)
	if err := l.AcceptsTrialRequests(); err != nil {
		return err
	}
	return &domain.ConflictError{Reason: "listing is not accepting requests"}
}

func (r *TrialRequestRepository) GetByID(ctx context.Context, id string) (domain.TrialRequest, error) {
	t, err := scanTrial(r.db.QueryRowContext(ctx,
		`SELECT `+trialColumns+` FROM trial_requests t WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TrialRequest{}, &domain.NotFoundError{Entity: "trial_request", ID: id}
	}
	return t, err
}

func (r *TrialRequestRepository) ListByUser(ctx context.Context, userID string) ([]domain.TrialRequest, error) {
	return r.list(ctx,
		`SELECT `+trialColumns+` FROM trial_requests t
		 WHERE t.user_id = ? ORDER BY t.created_at DESC, t.id DESC`, userID)
}

func (r *TrialRequestRepository) ListByProvider(ctx context.Context, providerID string) ([]domain.TrialRequest, error) {
	return r.list(ctx,
		`SELECT `+trialColumns+` FROM trial_requests t
		 JOIN listings l ON l.id = t.listing_id
		 WHERE l.provider_id = ? ORDER BY t.created_at DESC, t.id DESC`, providerID)
}

func (r *TrialRequestRepository) list(ctx context.Context, query string, args ...any) ([]domain.TrialRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trial requests: %w", err)
	}
	defer rows.Close()

	var out []domain.TrialRequest
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

func (r *TrialRequestRepository) HasConfirmed(ctx context.Context, userID, listingID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trial_requests WHERE user_id = ? AND listing_id = ? AND status = ?`,
		userID, listingID, string(domain.TrialConfirmed),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking confirmed trials: %w", err)
	}
	return n > 0, nil
}

// TransitionStatus applies the conditional status write and the matching
// capacity adjustment in one transaction. responded_at is set on the first
// exit from pending.
func (r *TrialRequestRepository) TransitionStatus(ctx context.Context, change domain.TrialStatusChange) (domain.SeatChange, error) {
	var seats domain.SeatChange
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE trial_requests SET status = ?, responded_at = COALESCE(responded_at, ?)
			 WHERE id = ? AND status = ?`,
			string(change.To), formatTime(change.At), change.ID, string(change.From),
		)
		if err != nil {
			return fmt.Errorf("updating trial request status: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if rows == 0 {
			return staleOrMissing(ctx, tx, "trial_requests", "trial_request", change.ID)
		}

		if change.SeatDelta == 0 {
			return nil
		}

		var listingID string
		if err := tx.QueryRowContext(ctx,
			`SELECT listing_id FROM trial_requests WHERE id = ?`, change.ID,
		).Scan(&listingID); err != nil {
			return fmt.Errorf("reading trial listing: %w", err)
		}

		seats, err = adjustSeats(ctx, tx, listingID, change.SeatDelta, change.At)
		return err
	})
	if err != nil {
		return domain.SeatChange{}, err
	}
	return seats, nil
}

func scanTrial(row scanner) (domain.TrialRequest, error) {
	var t domain.TrialRequest
	var childID, message, respondedAt sql.NullString
	var day sql.NullInt64
	var status, createdAt string

	err := row.Scan(&t.ID, &t.UserID, &t.ListingID, &childID, &day, &message, &status, &createdAt, &respondedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TrialRequest{}, err
		}
		return domain.TrialRequest{}, fmt.Errorf("scanning trial request: %w", err)
	}

	t.ChildID = stringPtr(childID)
	t.PreferredDay = intPtr(day)
	t.Message = stringPtr(message)
	t.Status = domain.TrialStatus(status)
	t.CreatedAt = parseTime(createdAt)
	t.RespondedAt = timePtr(respondedAt)
	return t, nil
}
