package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

// --- Profile ---

type ProfileOutput struct {
	Body UserResponse
}

type RegisterInput struct {
	Body struct {
		FullName string  `json:"full_name,omitempty" maxLength:"255" doc:"Display name"`
		Phone    *string `json:"phone,omitempty" maxLength:"50"`
		City     string  `json:"city,omitempty" maxLength:"100"`
		Role     string  `json:"role,omitempty" doc:"parent, provider, both or admin (default parent)"`
	}
}

// --- Account deletion ---

type DeleteAccountOutput struct {
	Body struct {
		Deleted         bool `json:"deleted"`
		ListingsDeleted int  `json:"listings_deleted"`
		SeatsReleased   int  `json:"seats_released"`
	}
}

// --- Providers ---

type CreateProviderInput struct {
	Body struct {
		DisplayName  string  `json:"display_name,omitempty" maxLength:"255"`
		Bio          *string `json:"bio,omitempty" maxLength:"2000"`
		ContactEmail string  `json:"contact_email,omitempty" maxLength:"255" doc:"Defaults to the account email"`
		ContactPhone *string `json:"contact_phone,omitempty" maxLength:"50"`
	}
}

type ProviderOutput struct {
	Body ProviderResponse
}

// --- Children ---

type CreateChildInput struct {
	Body struct {
		Name      string `json:"name,omitempty" maxLength:"100"`
		BirthYear int    `json:"birth_year,omitempty"`
	}
}

type ChildOutput struct {
	Body ChildResponse
}

type ListChildrenOutput struct {
	Body []ChildResponse
}

func registerAccounts(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get the caller's profile",
		Tags:        []string{"Account"},
	}, func(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
		user, err := svc.Accounts.Profile(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ProfileOutput{Body: toUserResponse(user)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "register-profile",
		Method:      http.MethodPut,
		Path:        "/api/v1/me",
		Summary:     "Create or update the caller's profile",
		Tags:        []string{"Account"},
	}, func(ctx context.Context, input *RegisterInput) (*ProfileOutput, error) {
		user, err := svc.Accounts.Register(ctx, ActorFrom(ctx), app.ProfileInput{
			FullName: input.Body.FullName,
			Phone:    input.Body.Phone,
			City:     input.Body.City,
			Role:     domain.Role(input.Body.Role),
		})
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ProfileOutput{Body: toUserResponse(user)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-account",
		Method:      http.MethodDelete,
		Path:        "/api/v1/me",
		Summary:     "Delete the caller's account and everything that references it",
		Tags:        []string{"Account"},
	}, func(ctx context.Context, _ *struct{}) (*DeleteAccountOutput, error) {
		result, err := svc.Accounts.Delete(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		out := &DeleteAccountOutput{}
		out.Body.Deleted = true
		out.Body.ListingsDeleted = result.ListingsDeleted
		out.Body.SeatsReleased = result.SeatsReleased
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-provider",
		Method:        http.MethodPost,
		Path:          "/api/v1/providers",
		Summary:       "Open a provider profile for the caller",
		Tags:          []string{"Account"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateProviderInput) (*ProviderOutput, error) {
		p, err := svc.Accounts.CreateProvider(ctx, ActorFrom(ctx), app.ProviderInput{
			DisplayName:  input.Body.DisplayName,
			Bio:          input.Body.Bio,
			ContactEmail: input.Body.ContactEmail,
			ContactPhone: input.Body.ContactPhone,
		})
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ProviderOutput{Body: toProviderResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-child",
		Method:        http.MethodPost,
		Path:          "/api/v1/me/children",
		Summary:       "Add a child to the caller's account",
		Tags:          []string{"Account"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateChildInput) (*ChildOutput, error) {
		child, err := svc.Accounts.AddChild(ctx, ActorFrom(ctx), app.ChildInput{
			Name:      input.Body.Name,
			BirthYear: input.Body.BirthYear,
		})
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		return &ChildOutput{Body: toChildResponse(child)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-children",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/children",
		Summary:     "List the caller's children",
		Tags:        []string{"Account"},
	}, func(ctx context.Context, _ *struct{}) (*ListChildrenOutput, error) {
		children, err := svc.Accounts.ListChildren(ctx, ActorFrom(ctx))
		if err != nil {
			return nil, toAPIError(ctx, svc.Logger, err)
		}
		resp := make([]ChildResponse, len(children))
		for i, c := range children {
			resp[i] = toChildResponse(c)
		}
		return &ListChildrenOutput{Body: resp}, nil
	})
}
