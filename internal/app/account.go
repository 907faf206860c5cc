package app

import (
	"context"
	"errors"
	"strings"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// ProfileInput holds the self-service profile fields.
type ProfileInput struct {
	FullName string
	Phone    *string
	City     string
	Role     domain.Role
}

// ProviderInput holds the fields of a provider profile.
type ProviderInput struct {
	DisplayName  string
	Bio          *string
	ContactEmail string
	ContactPhone *string
}

// ChildInput holds the fields of a child.
type ChildInput struct {
	Name      string
	BirthYear int
}

// AccountService manages profiles, provider profiles, children and account
// deletion.
type AccountService struct {
	base
	users    domain.UserRepository
	accounts domain.AccountRepository
}

// NewAccountService creates a service with the given adapters.
func NewAccountService(
	users domain.UserRepository,
	accounts domain.AccountRepository,
	notifier domain.Notifier,
	opts ...Option,
) *AccountService {
	return &AccountService{
		base:     newBase(notifier, opts),
		users:    users,
		accounts: accounts,
	}
}

// Register creates or updates the caller's profile. The email always comes
// from the caller's identity. Only an admin identity may hold the admin role.
// A welcome notification is sent on first registration.
func (s *AccountService) Register(ctx context.Context, actor domain.Actor, in ProfileInput) (domain.User, error) {
	if err := requireActor(actor); err != nil {
		return domain.User{}, err
	}
	if err := required("email", actor.Email); err != nil {
		return domain.User{}, err
	}
	if err := required("full_name", in.FullName); err != nil {
		return domain.User{}, err
	}
	if in.Role == "" {
		in.Role = domain.RoleParent
	}
	if !in.Role.Valid() {
		return domain.User{}, &domain.ValidationError{Field: "role", Reason: "must be parent, provider, both or admin"}
	}
	if in.Role == domain.RoleAdmin && !actor.IsAdmin() {
		return domain.User{}, &domain.ForbiddenError{Reason: "the admin role cannot be self-assigned"}
	}

	existing, err := s.users.GetUser(ctx, actor.UserID)
	first := errors.Is(err, domain.ErrNotFound)
	if err != nil && !first {
		return domain.User{}, storeErr(ctx, "loading profile", err)
	}

	user := domain.User{
		ID:        actor.UserID,
		Email:     actor.Email,
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     in.Phone,
		City:      strings.TrimSpace(in.City),
		Role:      in.Role,
		CreatedAt: s.clock(),
	}
	if !first {
		user.CreatedAt = existing.CreatedAt
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		return domain.User{}, storeErr(ctx, "saving profile", err)
	}

	if first {
		s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
		if template, ok := welcomeTemplate(user.Role); ok {
			s.notify(ctx, domain.Notification{
				Template:  template,
				Recipient: user.Email,
				Payload: map[string]any{
					"full_name": user.FullName,
					"app_url":   s.link("/"),
				},
			})
		}
	}

	return user, nil
}

func welcomeTemplate(role domain.Role) (domain.Template, bool) {
	switch {
	case role.IsProvider():
		return domain.TemplateWelcomeProvider, true
	case role.IsParent():
		return domain.TemplateWelcomeParent, true
	}
	return "", false
}

// Profile returns the caller's stored profile.
func (s *AccountService) Profile(ctx context.Context, actor domain.Actor) (domain.User, error) {
	if err := requireActor(actor); err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetUser(ctx, actor.UserID)
	if err != nil {
		return domain.User{}, storeErr(ctx, "loading profile", err)
	}
	return user, nil
}

// CreateProvider opens a provider profile for the caller. The contact email
// defaults to the account email.
func (s *AccountService) CreateProvider(ctx context.Context, actor domain.Actor, in ProviderInput) (domain.Provider, error) {
	user, err := loadProfile(ctx, s.users, actor)
	if err != nil {
		return domain.Provider{}, err
	}
	if !user.Role.IsProvider() {
		return domain.Provider{}, &domain.ForbiddenError{Reason: "provider role required"}
	}
	if err := required("display_name", in.DisplayName); err != nil {
		return domain.Provider{}, err
	}

	contact := strings.TrimSpace(in.ContactEmail)
	if contact == "" {
		contact = user.Email
	}

	provider := domain.Provider{
		ID:           newID(),
		UserID:       user.ID,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Bio:          in.Bio,
		ContactEmail: contact,
		ContactPhone: in.ContactPhone,
		ListedSince:  s.clock(),
	}
	if err := s.users.CreateProvider(ctx, provider); err != nil {
		return domain.Provider{}, storeErr(ctx, "creating provider", err)
	}

	s.logger.InfoContext(ctx, "provider created", "provider_id", provider.ID, "user_id", user.ID)
	return provider, nil
}

// AddChild registers a child for the caller.
func (s *AccountService) AddChild(ctx context.Context, actor domain.Actor, in ChildInput) (domain.Child, error) {
	if _, err := loadProfile(ctx, s.users, actor); err != nil {
		return domain.Child{}, err
	}
	if err := required("name", in.Name); err != nil {
		return domain.Child{}, err
	}
	now := s.clock()
	if in.BirthYear < now.Year()-18 || in.BirthYear > now.Year() {
		return domain.Child{}, &domain.ValidationError{Field: "birth_year", Reason: "must be within the last 18 years"}
	}

	child := domain.Child{
		ID:        newID(),
		UserID:    actor.UserID,
		Name:      strings.TrimSpace(in.Name),
		BirthYear: in.BirthYear,
		CreatedAt: now,
	}
	if err := s.users.CreateChild(ctx, child); err != nil {
		return domain.Child{}, storeErr(ctx, "creating child", err)
	}
	return child, nil
}

// ListChildren returns the caller's children.
func (s *AccountService) ListChildren(ctx context.Context, actor domain.Actor) ([]domain.Child, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	children, err := s.users.ListChildren(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(ctx, "listing children", err)
	}
	return children, nil
}

// Delete removes the caller's account and everything that references it in
// one transaction. A failure leaves the account intact.
func (s *AccountService) Delete(ctx context.Context, actor domain.Actor) (domain.AccountDeletion, error) {
	if err := requireActor(actor); err != nil {
		return domain.AccountDeletion{}, err
	}

	user, err := s.users.GetUser(ctx, actor.UserID)
	if err != nil {
		return domain.AccountDeletion{}, storeErr(ctx, "loading profile", err)
	}

	result, err := s.accounts.DeleteAccount(ctx, user.ID)
	if err != nil {
		return domain.AccountDeletion{}, storeErr(ctx, "deleting account", err)
	}

	s.logger.InfoContext(ctx, "account deleted",
		"user_id", user.ID,
		"listings_deleted", result.ListingsDeleted,
		"seats_released", result.SeatsReleased,
	)
	if result.SeatsClamped > 0 {
		s.logger.WarnContext(ctx, "capacity adjustment clamped",
			"user_id", user.ID,
			"seats_clamped", result.SeatsClamped,
		)
	}

	s.notify(ctx, domain.Notification{
		Template:  domain.TemplateAccountDeleted,
		Recipient: user.Email,
		Payload:   map[string]any{"full_name": user.FullName},
	})

	return result, nil
}
