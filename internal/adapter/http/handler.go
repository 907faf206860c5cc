package http

import (
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

const timeFormat = time.RFC3339

// Services bundles the application services exposed over HTTP.
type Services struct {
	Accounts *app.AccountService
	Listings *app.ListingService
	Trials   *app.TrialService
	Reviews  *app.ReviewService
	Saves    *app.SaveService
	Digest   *app.DigestService
	Logger   *slog.Logger
}

// Register adds all kidvo API routes to the Huma API.
func Register(api huma.API, svc Services) {
	if svc.Logger == nil {
		svc.Logger = slog.Default()
	}
	installErrors()
	registerAccounts(api, svc)
	registerListings(api, svc)
	registerTrials(api, svc)
	registerReviews(api, svc)
	registerSaves(api, svc)
	registerAdmin(api, svc)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeFormat)
	return &s
}

// --- Responses ---

// UserResponse is the API representation of a profile.
type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Phone     *string `json:"phone,omitempty"`
	City      string  `json:"city"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at" doc:"Registration timestamp (RFC 3339)"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		City:      u.City,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.UTC().Format(timeFormat),
	}
}

// ProviderResponse is the API representation of a provider profile.
type ProviderResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	DisplayName  string  `json:"display_name"`
	Bio          *string `json:"bio,omitempty"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Verified     bool    `json:"verified"`
	ListedSince  string  `json:"listed_since"`
}

func toProviderResponse(p domain.Provider) ProviderResponse {
	return ProviderResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		DisplayName:  p.DisplayName,
		Bio:          p.Bio,
		ContactEmail: p.ContactEmail,
		ContactPhone: p.ContactPhone,
		Verified:     p.Verified,
		ListedSince:  p.ListedSince.UTC().Format(timeFormat),
	}
}

// ChildResponse is the API representation of a child.
type ChildResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthYear int    `json:"birth_year"`
}

func toChildResponse(c domain.Child) ChildResponse {
	return ChildResponse{ID: c.ID, Name: c.Name, BirthYear: c.BirthYear}
}

// ScheduleBody is one weekly session of a listing.
type ScheduleBody struct {
	DayOfWeek  int     `json:"day_of_week" minimum:"0" maximum:"6" doc:"0 = Monday ... 6 = Sunday"`
	TimeStart  string  `json:"time_start" pattern:"^[0-2][0-9]:[0-5][0-9]$" doc:"Start time (HH:MM)"`
	TimeEnd    string  `json:"time_end" pattern:"^[0-2][0-9]:[0-5][0-9]$" doc:"End time (HH:MM)"`
	GroupLabel *string `json:"group_label,omitempty" maxLength:"100"`
}

// ListingResponse is the API representation of a listing.
type ListingResponse struct {
	ID             string         `json:"id"`
	ProviderID     string         `json:"provider_id"`
	CategoryID     string         `json:"category_id"`
	AreaID         string         `json:"area_id"`
	Title          string         `json:"title"`
	Description    *string        `json:"description,omitempty"`
	AgeMin         int            `json:"age_min"`
	AgeMax         int            `json:"age_max"`
	PriceMonthly   int            `json:"price_monthly"`
	SpotsTotal     *int           `json:"spots_total,omitempty" doc:"Absent when capacity is unlimited"`
	SpotsAvailable *int           `json:"spots_available,omitempty"`
	TrialAvailable bool           `json:"trial_available"`
	Status         string         `json:"status" doc:"Lifecycle state"`
	PublishedAt    *string        `json:"published_at,omitempty" doc:"First activation timestamp"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
	Schedules      []ScheduleBody `json:"schedules"`
}

func toListingResponse(l domain.Listing) ListingResponse {
	schedules := make([]ScheduleBody, len(l.Schedules))
	for i, s := range l.Schedules {
		schedules[i] = ScheduleBody{
			DayOfWeek:  s.DayOfWeek,
			TimeStart:  s.TimeStart,
			TimeEnd:    s.TimeEnd,
			GroupLabel: s.GroupLabel,
		}
	}
	return ListingResponse{
		ID:             l.ID,
		ProviderID:     l.ProviderID,
		CategoryID:     l.CategoryID,
		AreaID:         l.AreaID,
		Title:          l.Title,
		Description:    l.Description,
		AgeMin:         l.AgeMin,
		AgeMax:         l.AgeMax,
		PriceMonthly:   l.PriceMonthly,
		SpotsTotal:     l.Capacity.Total,
		SpotsAvailable: l.Capacity.Available,
		TrialAvailable: l.TrialAvailable,
		Status:         string(l.Status),
		PublishedAt:    formatTimePtr(l.PublishedAt),
		CreatedAt:      l.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:      l.UpdatedAt.UTC().Format(timeFormat),
		Schedules:      schedules,
	}
}

func toListingResponses(listings []domain.Listing) []ListingResponse {
	out := make([]ListingResponse, len(listings))
	for i, l := range listings {
		out[i] = toListingResponse(l)
	}
	return out
}

// TrialRequestResponse is the API representation of a trial request.
type TrialRequestResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	ListingID    string  `json:"listing_id"`
	ChildID      *string `json:"child_id,omitempty"`
	PreferredDay *int    `json:"preferred_day,omitempty"`
	Message      *string `json:"message,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	RespondedAt  *string `json:"responded_at,omitempty"`
}

func toTrialResponse(t domain.TrialRequest) TrialRequestResponse {
	return TrialRequestResponse{
		ID:           t.ID,
		UserID:       t.UserID,
		ListingID:    t.ListingID,
		ChildID:      t.ChildID,
		PreferredDay: t.PreferredDay,
		Message:      t.Message,
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt.UTC().Format(timeFormat),
		RespondedAt:  formatTimePtr(t.RespondedAt),
	}
}

func toTrialResponses(reqs []domain.TrialRequest) []TrialRequestResponse {
	out := make([]TrialRequestResponse, len(reqs))
	for i, r := range reqs {
		out[i] = toTrialResponse(r)
	}
	return out
}

// ReviewResponse is the API representation of a review.
type ReviewResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	ListingID   string  `json:"listing_id"`
	ProviderID  string  `json:"provider_id"`
	Rating      int     `json:"rating"`
	Comment     *string `json:"comment,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	ModeratedAt *string `json:"moderated_at,omitempty"`
}

func toReviewResponse(r domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		ListingID:   r.ListingID,
		ProviderID:  r.ProviderID,
		Rating:      r.Rating,
		Comment:     r.Comment,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.UTC().Format(timeFormat),
		ModeratedAt: formatTimePtr(r.ModeratedAt),
	}
}

func toReviewResponses(reviews []domain.Review) []ReviewResponse {
	out := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = toReviewResponse(r)
	}
	return out
}

// SaveResponse is the API representation of a saved listing.
type SaveResponse struct {
	ID        string  `json:"id"`
	ListingID string  `json:"listing_id"`
	ChildID   *string `json:"child_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}
