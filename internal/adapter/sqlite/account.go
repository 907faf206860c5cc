package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// AccountRepository implements domain.AccountRepository using SQLite.
type AccountRepository struct {
	db *sql.DB
}

var _ domain.AccountRepository = (*AccountRepository)(nil)

// DeleteAccount removes the user and every dependent row in one transaction.
// The cascade is spelled out rather than left to foreign keys so that seats
// held by the user's confirmed trials are released first. Any failure rolls
// the whole deletion back.
func (r *AccountRepository) DeleteAccount(ctx context.Context, userID string) (domain.AccountDeletion, error) {
	var out domain.AccountDeletion

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "users", userID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.NotFoundError{Entity: "user", ID: userID}
		}

		held, err := confirmedSeats(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, listingID := range held {
			change, err := adjustSeats(ctx, tx, listingID, 1, time.Now())
			if err != nil {
				return err
			}
			if !change.Tracked {
				continue
			}
			if change.Clamped {
				out.SeatsClamped++
			} else {
				out.SeatsReleased++
			}
		}

		owned := `SELECT l.id FROM listings l JOIN providers p ON p.id = l.provider_id WHERE p.user_id = ?`
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM (`+owned+`)`, userID,
		).Scan(&out.ListingsDeleted); err != nil {
			return fmt.Errorf("counting listings: %w", err)
		}

		steps := []struct {
			what  string
			query string
		}{
			{"listing schedules", `DELETE FROM listing_schedules WHERE listing_id IN (` + owned + `)`},
			{"listing saves", `DELETE FROM saves WHERE listing_id IN (` + owned + `)`},
			{"listing trial requests", `DELETE FROM trial_requests WHERE listing_id IN (` + owned + `)`},
			{"listing reviews", `DELETE FROM reviews WHERE listing_id IN (` + owned + `)`},
			{"provider reviews", `DELETE FROM reviews WHERE provider_id IN (SELECT id FROM providers WHERE user_id = ?)`},
			{"listings", `DELETE FROM listings WHERE id IN (` + owned + `)`},
			{"provider", `DELETE FROM providers WHERE user_id = ?`},
			{"reviews", `DELETE FROM reviews WHERE user_id = ?`},
			{"saves", `DELETE FROM saves WHERE user_id = ?`},
			{"trial requests", `DELETE FROM trial_requests WHERE user_id = ?`},
			{"children", `DELETE FROM children WHERE user_id = ?`},
			{"user", `DELETE FROM users WHERE id = ?`},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, userID); err != nil {
				return fmt.Errorf("deleting %s: %w", step.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.AccountDeletion{}, err
	}
	return out, nil
}

// confirmedSeats returns one listing id per confirmed trial the user holds on
// listings they do not own.
func confirmedSeats(ctx context.Context, tx *sql.Tx, userID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT t.listing_id FROM trial_requests t
		 JOIN listings l ON l.id = t.listing_id
		 JOIN providers p ON p.id = l.provider_id
		 WHERE t.user_id = ? AND t.status = ? AND p.user_id <> ?`,
		userID, string(domain.TrialConfirmed), userID)
	if err != nil {
		return nil, fmt.Errorf("listing confirmed trials: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning confirmed trial: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
