package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

type CreateTrialInput struct {
	Body struct {
		ListingID    string  `json:"listing_id,omitempty" doc:"Listing to try"`
		ChildID      *string `json:"child_id,omitempty" doc:"Child attending the trial"`
		PreferredDay *int    `json:"preferred_day,omitempty" doc:"0 = Monday ... 6 = Sunday"`
		Message      *string `json:"message,omitempty" maxLength:"1000"`
	}
}

type TrialOutput struct {
	Body TrialRequestResponse
}

type ListTrialsOutput struct {
	Body []TrialRequestResponse
}

type TrialTransitionInput struct {
	ID   string `path:"id" doc:"Trial request ID"`
	Body struct {
		Action string `json:"action" doc:"confirm, decline or cancel"`
	}
}

func registerTrials(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-trial-request",
		Method:        http.MethodPost,
		Path:          "/api/v1/trial-requests",
		Summary:       "Request a trial class",
		Tags:          []string{"Trial requests"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTrialInput) (*TrialOutput, error) {
		req, err := svc.Trials.Create(ctx, ActorFrom(ctx), app.TrialInput{
			ListingID:    input.Body.ListingID,
			ChildID:      input.Body.ChildID,
			PreferredDay: input.Body.PreferredDay,
			Message:      input.Body.Message,
		})
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &TrialOutput{Body: toTrialResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-own-trial-requests",
		Method:      http.MethodGet,
		Path:        "/api/v1/trial-requests",
		Summary:     "List the caller's trial requests",
		Tags:        []string{"Trial requests"},
	}, func(ctx context.Context, _ *struct{}) (*ListTrialsOutput, error) {
		reqs, err := svc.Trials.ListMine(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListTrialsOutput{Body: toTrialResponses(reqs)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-trial-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/trial-requests/{id}/transition",
		Summary:     "Confirm, decline or cancel a trial request",
		Tags:        []string{"Trial requests"},
	}, func(ctx context.Context, input *TrialTransitionInput) (*TrialOutput, error) {
		req, err := svc.Trials.Transition(ctx, ActorFrom(ctx), input.ID, domain.Event(input.Body.Action))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &TrialOutput{Body: toTrialResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-provider-trial-requests",
		Method:      http.MethodGet,
		Path:        "/api/v1/provider/trial-requests",
		Summary:     "List trial requests for the caller's listings",
		Tags:        []string{"Trial requests"},
	}, func(ctx context.Context, _ *struct{}) (*ListTrialsOutput, error) {
		reqs, err := svc.Trials.Inbox(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ListTrialsOutput{Body: toTrialResponses(reqs)}, nil
	})
}
