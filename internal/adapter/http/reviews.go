package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

type CreateReviewInput struct {
	Body struct {
		ListingID string  `json:"listing_id,omitempty"`
		Rating    int     `json:"rating,omitempty" doc:"Whole stars from 1 to 5"`
		Comment   *string `json:"comment,omitempty" maxLength:"2000"`
	}
}

type ReviewOutput struct {
	Body ReviewResponse
}

type ModerateReviewInput struct {
	ID   string `path:"id" doc:"Review ID"`
	Body struct {
		Action string `json:"action" doc:"approve or reject"`
	}
}

func registerReviews(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-review",
		Method:        http.MethodPost,
		Path:          "/api/v1/reviews",
		Summary:       "Submit a review for moderation",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
		review, err := svc.Reviews.Create(ctx, ActorFrom(ctx), app.ReviewInput{
			ListingID: input.Body.ListingID,
			Rating:    input.Body.Rating,
			Comment:   input.Body.Comment,
		})
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ReviewOutput{Body: toReviewResponse(review)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "moderate-review",
		Method:      http.MethodPost,
		Path:        "/api/v1/reviews/{id}/moderate",
		Summary:     "Approve or reject a pending review",
		Tags:        []string{"Reviews"},
	}, func(ctx context.Context, input *ModerateReviewInput) (*ReviewOutput, error) {
		review, err := svc.Reviews.Moderate(ctx, ActorFrom(ctx), input.ID, domain.Event(input.Body.Action))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ReviewOutput{Body: toReviewResponse(review)}, nil
	})
}
