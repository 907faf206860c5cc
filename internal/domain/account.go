package domain

import "time"

// User is a registered account.
type User struct {
	ID        string
	Email     string
	FullName  string
	Phone     *string
	City      string
	Role      Role
	CreatedAt time.Time
}

// Provider is the public business profile of a user who offers activities.
type Provider struct {
	ID           string
	UserID       string
	DisplayName  string
	Bio          *string
	ContactEmail string
	ContactPhone *string
	Verified     bool
	ListedSince  time.Time
}

// Child belongs to a parent and can be attached to saves and trial requests.
type Child struct {
	ID        string
	UserID    string
	Name      string
	BirthYear int
	CreatedAt time.Time
}

// Save bookmarks a listing, optionally on behalf of one child.
type Save struct {
	ID        string
	UserID    string
	ListingID string
	ChildID   *string
	CreatedAt time.Time
}
