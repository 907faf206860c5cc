package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/kidvo/internal/domain"
)

type AdminListingsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by status (e.g. pending)"`
}

type DigestOutput struct {
	Body struct {
		Listings int `json:"listings" doc:"New listings in the window"`
		Sent     int `json:"sent" doc:"Parents notified"`
	}
}

func registerAdmin(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "admin-list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/listings",
		Summary:     "List listings in any status",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *AdminListingsInput) (*ListListingsOutput, error) {
		var status *domain.ListingStatus
		if input.Status != "" {
			s := domain.ListingStatus(input.Status)
			status = &s
		}
		listings, err := svc.Listings.ListForModeration(ctx, ActorFrom(ctx), status)
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListListingsOutput{Body: toListingResponses(listings)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-list-reviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/reviews",
		Summary:     "List reviews awaiting moderation",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, _ *struct{}) (*ListReviewsOutput, error) {
		reviews, err := svc.Reviews.ListPending(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListReviewsOutput{Body: toReviewResponses(reviews)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-run-digest",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/digest",
		Summary:     "Send the new-listings digest now",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, _ *struct{}) (*DigestOutput, error) {
		result, err := svc.Digest.RunAs(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		out := &DigestOutput{}
		out.Body.Listings = result.Listings
		out.Body.Sent = result.Sent
		return out, nil
	})
}
