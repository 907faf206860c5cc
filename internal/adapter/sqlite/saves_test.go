package sqlite_test

import (
	"context"
	"testing"

	"github.com/neomorfeo/kidvo/internal/adapter/sqlite"
	"github.com/neomorfeo/kidvo/internal/domain"
)

func mustChild(t *testing.T, store *sqlite.Store, id, userID string) {
	t.Helper()
	c := domain.Child{ID: id, UserID: userID, Name: "Kid " + id, BirthYear: 2018, CreatedAt: baseTime}
	if err := store.Users().CreateChild(context.Background(), c); err != nil {
		t.Fatalf("mustChild failed: %v", err)
	}
}

func toggle(t *testing.T, store *sqlite.Store, id string, childID *string) bool {
	t.Helper()
	saved, err := store.Saves().Toggle(context.Background(), domain.Save{
		ID: id, UserID: "parent", ListingID: "l-1", ChildID: childID, CreatedAt: baseTime,
	})
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	return saved
}

func countSaves(t *testing.T, store *sqlite.Store) int {
	t.Helper()
	saves, err := store.Saves().ListByUser(context.Background(), "parent")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	return len(saves)
}

func TestSave_ToggleWithoutChild(t *testing.T) {
	store := seedTrialFixture(t, nil)

	if !toggle(t, store, "s-1", nil) {
		t.Error("first toggle should save")
	}
	if toggle(t, store, "s-2", nil) {
		t.Error("second toggle should unsave")
	}
	if n := countSaves(t, store); n != 0 {
		t.Errorf("got %d saves, want 0", n)
	}
}

func TestSave_ToggleIsChildAware(t *testing.T) {
	store := seedTrialFixture(t, nil)
	mustChild(t, store, "c-1", "parent")
	mustChild(t, store, "c-2", "parent")

	toggle(t, store, "s-1", ptr("c-1"))
	toggle(t, store, "s-2", ptr("c-2"))
	if n := countSaves(t, store); n != 2 {
		t.Fatalf("got %d saves, want 2", n)
	}

	if toggle(t, store, "s-3", ptr("c-1")) {
		t.Error("toggling c-1 again should unsave")
	}
	if n := countSaves(t, store); n != 1 {
		t.Fatalf("got %d saves, want 1 left for c-2", n)
	}

	// Unsaving without a child clears every remaining save for the listing.
	if toggle(t, store, "s-4", nil) {
		t.Error("toggle without child should unsave")
	}
	if n := countSaves(t, store); n != 0 {
		t.Errorf("got %d saves, want 0", n)
	}
}
