package domain

import (
	"strings"
	"time"
)

// Capacity tracks seats for a listing. A nil Total means unlimited.
type Capacity struct {
	Total     *int
	Available *int
}

// Tracked reports whether the listing has a seat limit.
func (c Capacity) Tracked() bool { return c.Total != nil && c.Available != nil }

// Full reports whether no seats remain. Untracked capacity is never full.
func (c Capacity) Full() bool { return c.Available != nil && *c.Available <= 0 }

// Validate checks 0 <= available <= total. Both must be set together.
func (c Capacity) Validate() error {
	switch {
	case c.Total == nil && c.Available == nil:
		return nil
	case c.Total == nil || c.Available == nil:
		return &ValidationError{Field: "spots", Reason: "spots_total and spots_available must be set together"}
	case *c.Total < 0:
		return &ValidationError{Field: "spots_total", Reason: "must not be negative"}
	case *c.Available < 0 || *c.Available > *c.Total:
		return &ValidationError{Field: "spots_available", Reason: "must be between 0 and spots_total"}
	}
	return nil
}

// Listing is an activity offered by a provider.
type Listing struct {
	ID             string
	ProviderID     string
	CategoryID     string
	AreaID         string
	Title          string
	Description    *string
	AgeMin         int
	AgeMax         int
	PriceMonthly   int
	Capacity       Capacity
	TrialAvailable bool
	Status         ListingStatus
	PublishedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Schedules      []Schedule
}

// AcceptsTrialRequests returns a ConflictError when new trial requests
// are refused: the listing is not active, offers no trials or is full.
func (l Listing) AcceptsTrialRequests() error {
	switch {
	case l.Status != ListingActive:
		return &ConflictError{Reason: "listing is not accepting requests"}
	case !l.TrialAvailable:
		return &ConflictError{Reason: "listing does not offer trial classes"}
	case l.Capacity.Full():
		return &ConflictError{Reason: "listing is full"}
	}
	return nil
}

// Validate checks the invariants that hold for every stored listing.
func (l Listing) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if l.CategoryID == "" {
		return &ValidationError{Field: "category_id", Reason: "is required"}
	}
	if l.AreaID == "" {
		return &ValidationError{Field: "area_id", Reason: "is required"}
	}
	if l.AgeMin < 0 || l.AgeMin > l.AgeMax {
		return &ValidationError{Field: "age_min", Reason: "must be between 0 and age_max"}
	}
	if l.PriceMonthly < 0 {
		return &ValidationError{Field: "price_monthly", Reason: "must not be negative"}
	}
	if err := l.Capacity.Validate(); err != nil {
		return err
	}
	for _, s := range l.Schedules {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Visible reports whether the listing is shown to the public.
func (l Listing) Visible() bool { return l.Status == ListingActive }

// Schedule is one weekly session of a listing.
type Schedule struct {
	ID         string
	ListingID  string
	DayOfWeek  int
	TimeStart  string
	TimeEnd    string
	GroupLabel *string
}

// Validate checks the day index and that both times are present.
func (s Schedule) Validate() error {
	if _, ok := DayName(s.DayOfWeek); !ok {
		return &ValidationError{Field: "day_of_week", Reason: "must be between 0 and 6"}
	}
	if s.TimeStart == "" || s.TimeEnd == "" {
		return &ValidationError{Field: "schedule", Reason: "time_start and time_end are required"}
	}
	return nil
}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the weekday for a Monday-first index 0..6.
func DayName(day int) (string, bool) {
	if day < 0 || day >= len(dayNames) {
		return "", false
	}
	return dayNames[day], true
}

// ListingFilter holds optional criteria for listing listings.
type ListingFilter struct {
	Status     *ListingStatus
	ProviderID string
	CategoryID string
	AreaID     string
	Age        *int
	Limit      int
	Offset     int
}
