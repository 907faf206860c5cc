package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

var _ domain.UserRepository = (*UserRepository)(nil)

// SaveUser inserts the user or updates its profile fields.
func (r *UserRepository) SaveUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, phone, city, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   email = excluded.email,
		   full_name = excluded.full_name,
		   phone = excluded.phone,
		   city = excluded.city,
		   role = excluded.role`,
		u.ID, u.Email, u.FullName, nullableString(u.Phone), u.City, string(u.Role),
		formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: fmt.Sprintf("email %q is already registered", u.Email)}
		}
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	var phone sql.NullString
	var role, createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, phone, city, role, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.FullName, &phone, &u.City, &role, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &domain.NotFoundError{Entity: "user", ID: id}
		}
		return domain.User{}, fmt.Errorf("scanning user: %w", err)
	}

	u.Phone = stringPtr(phone)
	u.Role = domain.Role(role)
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func (r *UserRepository) CreateProvider(ctx context.Context, p domain.Provider) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO providers (id, user_id, display_name, bio, contact_email, contact_phone, verified, listed_since)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.DisplayName, nullableString(p.Bio), p.ContactEmail,
		nullableString(p.ContactPhone), boolInt(p.Verified), formatTime(p.ListedSince),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: "provider profile already exists"}
		}
		if isForeignKeyViolation(err) {
			return &domain.NotFoundError{Entity: "user", ID: p.UserID}
		}
		return fmt.Errorf("inserting provider: %w", err)
	}
	return nil
}

const providerColumns = `id, user_id, display_name, bio, contact_email, contact_phone, verified, listed_since`

func (r *UserRepository) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	return scanProvider(r.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = ?`, id), id)
}

func (r *UserRepository) GetProviderByUser(ctx context.Context, userID string) (domain.Provider, error) {
	return scanProvider(r.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE user_id = ?`, userID), userID)
}

func scanProvider(row scanner, key string) (domain.Provider, error) {
	var p domain.Provider
	var bio, phone sql.NullString
	var verified int
	var listedSince string

	err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &bio, &p.ContactEmail, &phone, &verified, &listedSince)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Provider{}, &domain.NotFoundError{Entity: "provider", ID: key}
		}
		return domain.Provider{}, fmt.Errorf("scanning provider: %w", err)
	}

	p.Bio = stringPtr(bio)
	p.ContactPhone = stringPtr(phone)
	p.Verified = verified != 0
	p.ListedSince = parseTime(listedSince)
	return p, nil
}

func (r *UserRepository) CreateChild(ctx context.Context, c domain.Child) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO children (id, user_id, name, birth_year, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.BirthYear, formatTime(c.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.NotFoundError{Entity: "user", ID: c.UserID}
		}
		return fmt.Errorf("inserting child: %w", err)
	}
	return nil
}

func (r *UserRepository) GetChild(ctx context.Context, id string) (domain.Child, error) {
	var c domain.Child
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, birth_year, created_at FROM children WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.BirthYear, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Child{}, &domain.NotFoundError{Entity: "child", ID: id}
		}
		return domain.Child{}, fmt.Errorf("scanning child: %w", err)
	}

	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func (r *UserRepository) ListChildren(ctx context.Context, userID string) ([]domain.Child, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, birth_year, created_at FROM children
		 WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	defer rows.Close()

	var children []domain.Child
	for rows.Next() {
		var c domain.Child
		var createdAt string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.BirthYear, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning child row: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		children = append(children, c)
	}

	return children, rows.Err()
}
