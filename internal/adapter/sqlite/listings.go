package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// ListingRepository implements domain.ListingRepository using SQLite.
type ListingRepository struct {
	db *sql.DB
}

var _ domain.ListingRepository = (*ListingRepository)(nil)

const listingColumns = `id, provider_id, category_id, area_id, title, description, age_min, age_max,
	price_monthly, spots_total, spots_available, trial_available, status, published_at,
	created_at, updated_at`

func (r *ListingRepository) Create(ctx context.Context, l domain.Listing) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO listings (`+listingColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.ProviderID, l.CategoryID, l.AreaID, l.Title, nullableString(l.Description),
			l.AgeMin, l.AgeMax, l.PriceMonthly,
			nullableInt(l.Capacity.Total), nullableInt(l.Capacity.Available),
			boolInt(l.TrialAvailable), string(l.Status), nil,
			formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return &domain.ValidationError{Field: "category_id", Reason: "unknown category, area or provider"}
			}
			return fmt.Errorf("inserting listing: %w", err)
		}
		return insertSchedules(ctx, tx, l.ID, l.Schedules)
	})
}

func insertSchedules(ctx context.Context, tx *sql.Tx, listingID string, schedules []domain.Schedule) error {
	for _, s := range schedules {
		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO listing_schedules (id, listing_id, day_of_week, time_start, time_end, group_label)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, listingID, s.DayOfWeek, s.TimeStart, s.TimeEnd, nullableString(s.GroupLabel),
		)
		if err != nil {
			return fmt.Errorf("inserting schedule: %w", err)
		}
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	return getListing(ctx, r.db, id)
}

func getListing(ctx context.Context, q querier, id string) (domain.Listing, error) {
	l, err := scanListing(q.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, &domain.NotFoundError{Entity: "listing", ID: id}
		}
		return domain.Listing{}, err
	}

	l.Schedules, err = listSchedules(ctx, q, id)
	if err != nil {
		return domain.Listing{}, err
	}
	return l, nil
}

func (r *ListingRepository) List(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE 1 = 1`
	var args []any

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.ProviderID != "" {
		query += ` AND provider_id = ?`
		args = append(args, filter.ProviderID)
	}
	if filter.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.AreaID != "" {
		query += ` AND area_id = ?`
		args = append(args, filter.AreaID)
	}
	if filter.Age != nil {
		query += ` AND age_min <= ? AND age_max >= ?`
		args = append(args, *filter.Age, *filter.Age)
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
		return nil, fmt.Errorf("listing listings: %w", err)
	}

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Schedules are loaded after the cursor is closed to free the connection.
	rows.Close()

	for i := range listings {
		listings[i].Schedules, err = listSchedules(ctx, r.db, listings[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return listings, nil
}

// UpdateDetails rewrites the editable fields and schedules. Status and
// published_at are owned by CompareAndSwapStatus and are left untouched.
// spots_available is derived in SQL from the new total minus the seats
// already taken, so a concurrent confirmation is never overwritten. A
// listing that did not track capacity before counts its confirmed trials.
func (r *ListingRepository) UpdateDetails(ctx context.Context, l domain.Listing) error {
	total := nullableInt(l.Capacity.Total)
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE listings SET category_id = ?, area_id = ?, title = ?, description = ?,
			   age_min = ?, age_max = ?, price_monthly = ?,
			   spots_available = CASE WHEN ? IS NULL THEN NULL
			     ELSE MAX(0, ? - COALESCE(spots_total - spots_available,
			       (SELECT COUNT(*) FROM trial_requests t
			        WHERE t.listing_id = listings.id AND t.status = 'confirmed'))) END,
			   spots_total = ?,
			   trial_available = ?, updated_at = ?
			 WHERE id = ?`,
			l.CategoryID, l.AreaID, l.Title, nullableString(l.Description),
			l.AgeMin, l.AgeMax, l.PriceMonthly,
			total, total, total,
			boolInt(l.TrialAvailable), formatTime(l.UpdatedAt), l.ID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return &domain.ValidationError{Field: "category_id", Reason: "unknown category or area"}
			}
			return fmt.Errorf("updating listing: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if rows == 0 {
			return &domain.NotFoundError{Entity: "listing", ID: l.ID}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM listing_schedules WHERE listing_id = ?`, l.ID); err != nil {
			return fmt.Errorf("clearing schedules: %w", err)
		}
		return insertSchedules(ctx, tx, l.ID, l.Schedules)
	})
}

// CompareAndSwapStatus moves a listing from change.From to change.To in a
// single conditional UPDATE. published_at is stamped only on the first
// entry into active.
func (r *ListingRepository) CompareAndSwapStatus(ctx context.Context, change domain.ListingStatusChange) (domain.Listing, error) {
	var out domain.Listing
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		at := formatTime(change.At)
		result, err := tx.ExecContext(ctx,
			`UPDATE listings SET status = ?, updated_at = ?,
			   published_at = CASE WHEN ? = 'active' THEN COALESCE(published_at, ?) ELSE published_at END
			 WHERE id = ? AND status = ?`,
			string(change.To), at, string(change.To), at, change.ID, string(change.From),
		)
		if err != nil {
			return fmt.Errorf("updating listing status: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if rows == 0 {
			return staleOrMissing(ctx, tx, "listings", "listing", change.ID)
		}

		out, err = getListing(ctx, tx, change.ID)
		return err
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return out, nil
}

func scanListing(row scanner) (domain.Listing, error) {
	var l domain.Listing
	var description, publishedAt sql.NullString
	var total, available sql.NullInt64
	var trial int
	var status, createdAt, updatedAt string

	err := row.Scan(&l.ID, &l.ProviderID, &l.CategoryID, &l.AreaID, &l.Title, &description,
		&l.AgeMin, &l.AgeMax, &l.PriceMonthly, &total, &available, &trial, &status,
		&publishedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, err
		}
		return domain.Listing{}, fmt.Errorf("scanning listing: %w", err)
	}

	l.Description = stringPtr(description)
	l.Capacity = domain.Capacity{Total: intPtr(total), Available: intPtr(available)}
	l.TrialAvailable = trial != 0
	l.Status = domain.ListingStatus(status)
	l.PublishedAt = timePtr(publishedAt)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return l, nil
}

func listSchedules(ctx context.Context, q querier, listingID string) ([]domain.Schedule, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, listing_id, day_of_week, time_start, time_end, group_label
		 FROM listing_schedules WHERE listing_id = ? ORDER BY day_of_week, time_start`, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		var s domain.Schedule
		var label sql.NullString
		if err := rows.Scan(&s.ID, &s.ListingID, &s.DayOfWeek, &s.TimeStart, &s.TimeEnd, &label); err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		s.GroupLabel = stringPtr(label)
		schedules = append(schedules, s)
	}

	return schedules, rows.Err()
}

// adjustSeats moves spots_available by delta one seat at a time with
// conditional updates ("decrement if > 0", "increment if < total"). Steps
// that would leave the valid range are skipped and reported as clamped.
func adjustSeats(ctx context.Context, q querier, listingID string, delta int, at time.Time) (domain.SeatChange, error) {
	var total, available sql.NullInt64
	err := q.QueryRowContext(ctx,
		`SELECT spots_total, spots_available FROM listings WHERE id = ?`, listingID,
	).Scan(&total, &available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SeatChange{}, &domain.NotFoundError{Entity: "listing", ID: listingID}
		}
		return domain.SeatChange{}, fmt.Errorf("reading capacity: %w", err)
	}
	if !total.Valid || !available.Valid {
		return domain.SeatChange{}, nil
	}

	stmt := `UPDATE listings SET spots_available = spots_available - 1, updated_at = ?
		WHERE id = ? AND spots_available > 0`
	steps := -delta
	if delta > 0 {
		stmt = `UPDATE listings SET spots_available = spots_available + 1, updated_at = ?
			WHERE id = ? AND spots_available < spots_total`
		steps = delta
	}

	change := domain.SeatChange{Tracked: true}
	for range steps {
		result, err := q.ExecContext(ctx, stmt, formatTime(at), listingID)
		if err != nil {
			return domain.SeatChange{}, fmt.Errorf("adjusting capacity: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return domain.SeatChange{}, fmt.Errorf("checking rows affected: %w", err)
		}
		if rows == 0 {
			change.Clamped = true
		}
	}

	if err := q.QueryRowContext(ctx,
		`SELECT spots_available FROM listings WHERE id = ?`, listingID,
	).Scan(&change.Available); err != nil {
		return domain.SeatChange{}, fmt.Errorf("reading capacity: %w", err)
	}
	return change, nil
}
