package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// SaveRepository implements domain.SaveRepository using SQLite.
type SaveRepository struct {
	db *sql.DB
}

var _ domain.SaveRepository = (*SaveRepository)(nil)

// Toggle deletes the matching saves, or inserts s when none matched.
// With a child the match is the (user, listing, child) triple; without one
// it is every save the user holds for the listing.
func (r *SaveRepository) Toggle(ctx context.Context, s domain.Save) (bool, error) {
	var saved bool
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `DELETE FROM saves WHERE user_id = ? AND listing_id = ?`
		args := []any{s.UserID, s.ListingID}
		if s.ChildID != nil {
			query += ` AND child_id = ?`
			args = append(args, *s.ChildID)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("deleting saves: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if rows > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO saves (id, user_id, listing_id, child_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.UserID, s.ListingID, nullableString(s.ChildID), formatTime(s.CreatedAt),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return &domain.NotFoundError{Entity: "listing", ID: s.ListingID}
			}
			return fmt.Errorf("inserting save: %w", err)
		}
		saved = true
		return nil
	})
	return saved, err
}

func (r *SaveRepository) ListByUser(ctx context.Context, userID string) ([]domain.Save, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, listing_id, child_id, created_at FROM saves
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var saves []domain.Save
	for rows.Next() {
		var s domain.Save
		var childID sql.NullString
		var createdAt string
		if err := rows.Scan(&s.ID, &s.UserID, &s.ListingID, &childID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning save row: %w", err)
		}
		s.ChildID = stringPtr(childID)
		s.CreatedAt = parseTime(createdAt)
		saves = append(saves, s)
	}

	return saves, rows.Err()
}
