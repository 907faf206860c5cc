package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type ToggleSaveInput struct {
	Body struct {
		ListingID string  `json:"listing_id,omitempty"`
		ChildID   *string `json:"child_id,omitempty" doc:"Without a child every save for the listing is removed"`
	}
}

type ToggleSaveOutput struct {
	Body struct {
		Saved bool `json:"saved" doc:"Whether the listing is saved after the toggle"`
	}
}

type ListSavesOutput struct {
	Body []SaveResponse
}

func registerSaves(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "toggle-save",
		Method:      http.MethodPost,
		Path:        "/api/v1/saves",
		Summary:     "Save or unsave a listing",
		Tags:        []string{"Saves"},
	}, func(ctx context.Context, input *ToggleSaveInput) (*ToggleSaveOutput, error) {
		saved, err := svc.Saves.Toggle(ctx, ActorFrom(ctx), input.Body.ListingID, input.Body.ChildID)
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		out := &ToggleSaveOutput{}
		out.Body.Saved = saved
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-saves",
		Method:      http.MethodGet,
		Path:        "/api/v1/saves",
		Summary:     "List the caller's saved listings",
		Tags:        []string{"Saves"},
	}, func(ctx context.Context, _ *struct{}) (*ListSavesOutput, error) {
		saves, err := svc.Saves.List(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		resp := make([]SaveResponse, len(saves))
		for i, s := range saves {
			resp[i] = SaveResponse{
				ID:        s.ID,
				ListingID: s.ListingID,
				ChildID:   s.ChildID,
				CreatedAt: s.CreatedAt.UTC().Format(timeFormat),
			}
		}
		return &ListSavesOutput{Body: resp}, nil
	})
}
