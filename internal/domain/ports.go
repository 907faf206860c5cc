package domain

import (
	"context"
	"time"
)

// TransitionValidator decides whether event is legal from current and
// returns the destination state.
type TransitionValidator[S ~string] interface {
	Apply(ctx context.Context, current S, event Event) (S, error)
}

// UserRepository defines the persistence contract for accounts, provider
// profiles and children.
type UserRepository interface {
	SaveUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	CreateProvider(ctx context.Context, provider Provider) error
	GetProvider(ctx context.Context, id string) (Provider, error)
	GetProviderByUser(ctx context.Context, userID string) (Provider, error)
	CreateChild(ctx context.Context, child Child) error
	GetChild(ctx context.Context, id string) (Child, error)
	ListChildren(ctx context.Context, userID string) ([]Child, error)
}

// ListingStatusChange is a conditional status write. It only applies when
// the stored status still equals From. Entering active stamps PublishedAt
// with At unless it is already set.
type ListingStatusChange struct {
	ID   string
	From ListingStatus
	To   ListingStatus
	At   time.Time
}

// ListingRepository defines the persistence contract for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing Listing) error
	GetByID(ctx context.Context, id string) (Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]Listing, error)
	UpdateDetails(ctx context.Context, listing Listing) error
	// CompareAndSwapStatus returns ErrStaleState when no row matched.
	CompareAndSwapStatus(ctx context.Context, change ListingStatusChange) (Listing, error)
}

// TrialStatusChange is a conditional status write for a trial request.
// SeatDelta adjusts the listing's spots_available in the same transaction.
type TrialStatusChange struct {
	ID        string
	From      TrialStatus
	To        TrialStatus
	At        time.Time
	SeatDelta int
}

// SeatChange reports the capacity outcome of a status change.
type SeatChange struct {
	Tracked   bool
	Available int
	Clamped   bool
}

// TrialRequestRepository defines the persistence contract for trial requests.
type TrialRequestRepository interface {
	// Create only inserts while the listing still accepts trial requests,
	// checked in the same statement. Otherwise it returns the ConflictError
	// from Listing.AcceptsTrialRequests.
	Create(ctx context.Context, req TrialRequest) error
	GetByID(ctx context.Context, id string) (TrialRequest, error)
	ListByUser(ctx context.Context, userID string) ([]TrialRequest, error)
	ListByProvider(ctx context.Context, providerID string) ([]TrialRequest, error)
	HasConfirmed(ctx context.Context, userID, listingID string) (bool, error)
	// TransitionStatus returns ErrStaleState when no row matched.
	TransitionStatus(ctx context.Context, change TrialStatusChange) (SeatChange, error)
}

// ReviewFilter holds optional criteria for listing reviews.
type ReviewFilter struct {
	Status    *ReviewStatus
	ListingID string
	Limit     int
	Offset    int
}

// ReviewStatusChange is a conditional moderation write.
type ReviewStatusChange struct {
	ID   string
	From ReviewStatus
	To   ReviewStatus
	At   time.Time
}

// ReviewRepository defines the persistence contract for reviews.
type ReviewRepository interface {
	// Create returns a ConflictError when the user already reviewed the listing.
	Create(ctx context.Context, review Review) error
	GetByID(ctx context.Context, id string) (Review, error)
	Exists(ctx context.Context, userID, listingID string) (bool, error)
	List(ctx context.Context, filter ReviewFilter) ([]Review, error)
	// CompareAndSwapStatus returns ErrStaleState when no row matched.
	CompareAndSwapStatus(ctx context.Context, change ReviewStatusChange) error
}

// SaveRepository defines the persistence contract for saved listings.
type SaveRepository interface {
	// Toggle removes matching saves if any exist, otherwise inserts save.
	// A nil ChildID matches every save the user holds for the listing.
	Toggle(ctx context.Context, save Save) (saved bool, err error)
	ListByUser(ctx context.Context, userID string) ([]Save, error)
}

// AccountDeletion summarises what an account deletion removed.
type AccountDeletion struct {
	ListingsDeleted int
	SeatsReleased   int
	SeatsClamped    int
}

// AccountRepository removes a user and everything that references them.
type AccountRepository interface {
	DeleteAccount(ctx context.Context, userID string) (AccountDeletion, error)
}

// DigestListing is a newly published listing with the data a digest needs.
type DigestListing struct {
	ListingID     string
	Title         string
	ProviderID    string
	ProviderName  string
	CategoryName  string
	IsNewProvider bool
}

// DigestRecipient is a parent who saved at least one listing of a provider.
type DigestRecipient struct {
	UserID     string
	Email      string
	FullName   string
	ProviderID string
}

// DigestRepository answers the read-only queries of the daily digest.
type DigestRepository interface {
	PublishedSince(ctx context.Context, since time.Time) ([]DigestListing, error)
	Followers(ctx context.Context, providerIDs []string) ([]DigestRecipient, error)
}
