package app_test

import (
	"context"
	"testing"

	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

func TestSaveToggle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := actor("prov", domain.RoleProvider)
	parent := actor("parent", domain.RoleParent)
	h.provider(t, owner)
	h.register(t, parent)
	listing := h.activeListing(t, owner, nil)

	first, err := h.accounts.AddChild(ctx, parent, app.ChildInput{Name: "Tomás", BirthYear: 2018})
	if err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	second, err := h.accounts.AddChild(ctx, parent, app.ChildInput{Name: "Lucía", BirthYear: 2020})
	if err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}

	for _, c := range []domain.Child{first, second} {
		saved, err := h.saves.Toggle(ctx, parent, listing.ID, &c.ID)
		if err != nil || !saved {
			t.Fatalf("Toggle(%s) = %v, %v", c.Name, saved, err)
		}
	}

	saved, err := h.saves.Toggle(ctx, parent, listing.ID, &first.ID)
	if err != nil || saved {
		t.Fatalf("second Toggle for the same child = %v, %v, want unsaved", saved, err)
	}
	saves, err := h.saves.List(ctx, parent)
	if err != nil || len(saves) != 1 || *saves[0].ChildID != second.ID {
		t.Fatalf("saves = %+v, err %v", saves, err)
	}

	// Unsaving without a child removes every save for the listing,
	// whichever child it was tagged for.
	saved, err = h.saves.Toggle(ctx, parent, listing.ID, nil)
	if err != nil || saved {
		t.Fatalf("Toggle without child = %v, %v, want unsaved", saved, err)
	}
	saves, err = h.saves.List(ctx, parent)
	if err != nil || len(saves) != 0 {
		t.Errorf("saves = %+v, err %v", saves, err)
	}
}

func TestSaveToggle_Rejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := actor("prov", domain.RoleProvider)
	parent := actor("parent", domain.RoleParent)
	other := actor("other", domain.RoleParent)
	h.provider(t, owner)
	h.register(t, parent)
	h.register(t, other)
	listing := h.activeListing(t, owner, nil)

	child, err := h.accounts.AddChild(ctx, other, app.ChildInput{Name: "Mateo", BirthYear: 2017})
	if err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}

	_, err = h.saves.Toggle(ctx, parent, listing.ID, &child.ID)
	assertKind(t, err, domain.KindForbidden)
	_, err = h.saves.Toggle(ctx, parent, "missing", nil)
	assertKind(t, err, domain.KindNotFound)
	_, err = h.saves.Toggle(ctx, parent, "", nil)
	assertKind(t, err, domain.KindValidation)
	_, err = h.saves.Toggle(ctx, domain.Actor{}, listing.ID, nil)
	assertKind(t, err, domain.KindUnauthorized)
}
