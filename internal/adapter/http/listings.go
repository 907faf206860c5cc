package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

// ListingBody holds the editable fields of a listing.
type ListingBody struct {
	CategoryID     string         `json:"category_id,omitempty" doc:"Category identifier (e.g. sports)"`
	AreaID         string         `json:"area_id,omitempty" doc:"Area identifier (e.g. centro)"`
	Title          string         `json:"title,omitempty" maxLength:"255"`
	Description    *string        `json:"description,omitempty" maxLength:"5000"`
	AgeMin         int            `json:"age_min,omitempty" minimum:"0"`
	AgeMax         int            `json:"age_max,omitempty" minimum:"0"`
	PriceMonthly   int            `json:"price_monthly,omitempty" minimum:"0"`
	SpotsTotal     *int           `json:"spots_total,omitempty" minimum:"0" doc:"Omit for unlimited capacity"`
	TrialAvailable bool           `json:"trial_available,omitempty"`
	Schedules      []ScheduleBody `json:"schedules,omitempty"`
}

func (b ListingBody) input() app.ListingInput {
	schedules := make([]domain.Schedule, len(b.Schedules))
	for i, s := range b.Schedules {
		schedules[i] = domain.Schedule{
			DayOfWeek:  s.DayOfWeek,
			TimeStart:  s.TimeStart,
			TimeEnd:    s.TimeEnd,
			GroupLabel: s.GroupLabel,
		}
	}
	return app.ListingInput{
		CategoryID:     b.CategoryID,
		AreaID:         b.AreaID,
		Title:          b.Title,
		Description:    b.Description,
		AgeMin:         b.AgeMin,
		AgeMax:         b.AgeMax,
		PriceMonthly:   b.PriceMonthly,
		SpotsTotal:     b.SpotsTotal,
		TrialAvailable: b.TrialAvailable,
		Schedules:      schedules,
	}
}

type CreateListingInput struct {
	Body ListingBody
}

type UpdateListingInput struct {
	ID   string `path:"id" doc:"Listing ID"`
	Body ListingBody
}

type GetListingInput struct {
	ID string `path:"id" doc:"Listing ID"`
}

type ListingOutput struct {
	Body ListingResponse
}

type BrowseListingsInput struct {
	Category string `query:"category" required:"false" doc:"Filter by category"`
	Area     string `query:"area" required:"false" doc:"Filter by area"`
	Age      int    `query:"age" required:"false" default:"-1" minimum:"-1" doc:"Child age in years; -1 disables the filter"`
	Limit    int    `query:"limit" required:"false" default:"50" minimum:"0" maximum:"200" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListListingsOutput struct {
	Body []ListingResponse
}

type ListingStatusInput struct {
	ID   string `path:"id" doc:"Listing ID"`
	Body struct {
		Status string `json:"status" doc:"Target status: active, paused or draft"`
	}
}

type ListReviewsInput struct {
	ID string `path:"id" doc:"Listing ID"`
}

type ListReviewsOutput struct {
	Body []ReviewResponse
}

func registerListings(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-listing",
		Method:        http.MethodPost,
		Path:          "/api/v1/listings",
		Summary:       "Submit a new listing for moderation",
		Tags:          []string{"Listings"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateListingInput) (*ListingOutput, error) {
		listing, err := svc.Listings.Create(ctx, ActorFrom(ctx), input.Body.input())
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListingOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "browse-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "Browse active listings",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *BrowseListingsInput) (*ListListingsOutput, error) {
		filter := domain.ListingFilter{
			CategoryID: input.Category,
			AreaID:     input.Area,
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		if input.Age >= 0 {
			age := input.Age
			filter.Age = &age
		}
		listings, err := svc.Listings.Browse(ctx, filter)
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListListingsOutput{Body: toListingResponses(listings)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get a listing by ID",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *GetListingInput) (*ListingOutput, error) {
		listing, err := svc.Listings.Get(ctx, ActorFrom(ctx), input.ID)
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListingOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-listing",
		Method:      http.MethodPut,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Edit a listing's details",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *UpdateListingInput) (*ListingOutput, error) {
		listing, err := svc.Listings.Update(ctx, ActorFrom(ctx), input.ID, input.Body.input())
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListingOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/status",
		Summary:     "Move a listing to a new status",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *ListingStatusInput) (*ListingOutput, error) {
		listing, err := svc.Listings.Transition(ctx, ActorFrom(ctx), input.ID, domain.ListingStatus(input.Body.Status))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListingOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-listing-reviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}/reviews",
		Summary:     "List the published reviews of a listing",
		Tags:        []string{"Reviews"},
	}, func(ctx context.Context, input *ListReviewsInput) (*ListReviewsOutput, error) {
		reviews, err := svc.Reviews.ListApproved(ctx, input.ID)
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListReviewsOutput{Body: toReviewResponses(reviews)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-own-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/provider/listings",
		Summary:     "List the caller's listings in every status",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, _ *struct{}) (*ListListingsOutput, error) {
		listings, err := svc.Listings.ListMine(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListListingsOutput{Body: toListingResponses(listings)}, nil
	})
}
