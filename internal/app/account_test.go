package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

func TestRegister_WelcomesOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	parent := actor("parent", domain.RoleParent)

	user, err := h.accounts.Register(ctx, parent, app.ProfileInput{FullName: "Ana Pérez", City: "Montevideo"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != domain.RoleParent || user.Email != parent.Email {
		t.Errorf("user = %+v", user)
	}

	h.advance(time.Hour)
	updated, err := h.accounts.Register(ctx, parent, app.ProfileInput{FullName: "Ana P.", City: "Canelones", Role: domain.RoleBoth})
	if err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if updated.Role != domain.RoleBoth || updated.FullName != "Ana P." {
		t.Errorf("updated = %+v", updated)
	}
	if !updated.CreatedAt.Equal(baseTime) {
		t.Errorf("CreatedAt = %v, want %v", updated.CreatedAt, baseTime)
	}

	welcome := h.notifier.byTemplate(domain.TemplateWelcomeParent)
	if len(welcome) != 1 || welcome[0].Recipient != parent.Email {
		t.Errorf("welcome.parent = %+v", welcome)
	}
	if n := h.notifier.count(); n != 1 {
		t.Errorf("sent %d notifications, want 1", n)
	}

	profile, err := h.accounts.Profile(ctx, parent)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.City != "Canelones" {
		t.Errorf("City = %q", profile.City)
	}
}

func TestRegister_ProviderWelcome(t *testing.T) {
	h := newHarness(t)
	owner := actor("prov", domain.RoleProvider)
	h.register(t, owner)

	if n := h.notifier.byTemplate(domain.TemplateWelcomeProvider); len(n) != 1 {
		t.Errorf("welcome.provider = %+v", n)
	}
}

func TestRegister_Rejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	parent := actor("parent", domain.RoleParent)

	tests := []struct {
		name  string
		actor domain.Actor
		in    app.ProfileInput
		want  domain.Kind
	}{
		{"anonymous", domain.Actor{}, app.ProfileInput{FullName: "X"}, domain.KindUnauthorized},
		{"missing name", parent, app.ProfileInput{}, domain.KindValidation},
		{"unknown role", parent, app.ProfileInput{FullName: "X", Role: "superuser"}, domain.KindValidation},
		{"self-assigned admin", parent, app.ProfileInput{FullName: "X", Role: domain.RoleAdmin}, domain.KindForbidden},
		{"no email in identity", domain.Actor{UserID: "u"}, app.ProfileInput{FullName: "X"}, domain.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.accounts.Register(ctx, tt.actor, tt.in)
			assertKind(t, err, tt.want)
		})
	}

	if _, err := h.accounts.Register(ctx, admin, app.ProfileInput{FullName: "Moderator", Role: domain.RoleAdmin}); err != nil {
		t.Errorf("admin identity should keep the admin role: %v", err)
	}
}

func TestCreateProvider(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := actor("prov", domain.RoleProvider)
	parent := actor("parent", domain.RoleParent)
	h.register(t, owner)
	h.register(t, parent)

	p, err := h.accounts.CreateProvider(ctx, owner, app.ProviderInput{DisplayName: "Club Atlético"})
	if err != nil {
		t.Fatalf("CreateProvider failed: %v", err)
	}
	if p.ContactEmail != owner.Email {
		t.Errorf("ContactEmail = %q, want account email", p.ContactEmail)
	}

	_, err = h.accounts.CreateProvider(ctx, owner, app.ProviderInput{DisplayName: "Again"})
	assertKind(t, err, domain.KindConflict)

	_, err = h.accounts.CreateProvider(ctx, parent, app.ProviderInput{DisplayName: "Sneaky"})
	assertKind(t, err, domain.KindForbidden)

	_, err = h.accounts.CreateProvider(ctx, actor("ghost", domain.RoleProvider), app.ProviderInput{DisplayName: "Ghost"})
	assertKind(t, err, domain.KindForbidden)
}

func TestChildren(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	parent := actor("parent", domain.RoleParent)
	h.register(t, parent)

	if _, err := h.accounts.AddChild(ctx, parent, app.ChildInput{Name: "Tomás", BirthYear: 2018}); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	_, err := h.accounts.AddChild(ctx, parent, app.ChildInput{Name: "Future", BirthYear: 2030})
	assertKind(t, err, domain.KindValidation)
	_, err = h.accounts.AddChild(ctx, parent, app.ChildInput{BirthYear: 2018})
	assertKind(t, err, domain.KindValidation)

	children, err := h.accounts.ListChildren(ctx, parent)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(children) != 1 || children[0].Name != "Tomás" {
		t.Errorf("children = %+v", children)
	}
}

func TestDeleteAccount_ParentReleasesSeats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := actor("prov", domain.RoleProvider)
	parent := actor("parent", domain.RoleParent)
	h.provider(t, owner)
	h.register(t, parent)
	listing := h.activeListing(t, owner, ptr(5))

	req := h.requestTrial(t, parent, listing.ID)
	if _, err := h.trials.Transition(ctx, owner, req.ID, domain.EventConfirm); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := h.saves.Toggle(ctx, parent, listing.ID, nil); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	h.notifier.reset()

	result, err := h.accounts.Delete(ctx, parent)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if result.SeatsReleased != 1 || result.ListingsDeleted != 0 {
		t.Errorf("result = %+v", result)
	}
	if got := h.spotsAvailable(t, listing.ID); got != 5 {
		t.Errorf("spots_available = %d, want 5", got)
	}

	deleted := h.notifier.byTemplate(domain.TemplateAccountDeleted)
	if len(deleted) != 1 || deleted[0].Recipient != parent.Email {
		t.Errorf("account.deleted = %+v", deleted)
	}

	if _, err := h.accounts.Profile(ctx, parent); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("profile should be gone, got %v", err)
	}
	inbox, err := h.trials.Inbox(ctx, owner)
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	if len(inbox) != 0 {
		t.Errorf("provider inbox still holds %d requests", len(inbox))
	}

	_, err = h.accounts.Delete(ctx, parent)
	assertKind(t, err, domain.KindNotFound)
}

func TestDeleteAccount_ProviderCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := actor("prov", domain.RoleProvider)
	parent := actor("parent", domain.RoleParent)
	h.provider(t, owner)
	h.register(t, parent)
	listing := h.activeListing(t, owner, nil)
	h.requestTrial(t, parent, listing.ID)
	if _, err := h.saves.Toggle(ctx, parent, listing.ID, nil); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	result, err := h.accounts.Delete(ctx, owner)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if result.ListingsDeleted != 1 {
		t.Errorf("ListingsDeleted = %d, want 1", result.ListingsDeleted)
	}

	_, err = h.listings.Get(ctx, parent, listing.ID)
	assertKind(t, err, domain.KindNotFound)

	mine, err := h.trials.ListMine(ctx, parent)
	if err != nil {
		t.Fatalf("ListMine failed: %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("parent still holds %d requests for a deleted listing", len(mine))
	}
	saves, err := h.saves.List(ctx, parent)
	if err != nil {
		t.Fatalf("List saves failed: %v", err)
	}
	if len(saves) != 0 {
		t.Errorf("parent still holds %d saves for a deleted listing", len(saves))
	}
}
