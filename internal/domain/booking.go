package domain

import "time"

// TrialRequest is a parent's request to attend a trial class.
type TrialRequest struct {
	ID           string
	UserID       string
	ListingID    string
	ChildID      *string
	PreferredDay *int
	Message      *string
	Status       TrialStatus
	CreatedAt    time.Time
	RespondedAt  *time.Time
}

// Review is a parent's rating of a listing, published after moderation.
type Review struct {
	ID          string
	UserID      string
	ListingID   string
	ProviderID  string
	Rating      int
	Comment     *string
	Status      ReviewStatus
	CreatedAt   time.Time
	ModeratedAt *time.Time
}

// ValidateRating checks that a rating is a whole number from 1 to 5.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	return nil
}
