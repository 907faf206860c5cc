package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/kidvo/internal/domain"
)

func newReview(id, userID string, at time.Time) domain.Review {
	return domain.Review{
		ID:         id,
		UserID:     userID,
		ListingID:  "l-1",
		ProviderID: "p-1",
		Rating:     5,
		Comment:    ptr("Great coach"),
		Status:     domain.ReviewPending,
		CreatedAt:  at,
	}
}

func TestReview_CreateDuplicate_Conflict(t *testing.T) {
	store := seedTrialFixture(t, nil)
	ctx := context.Background()

	if err := store.Reviews().Create(ctx, newReview("r-1", "parent", baseTime)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := store.Reviews().Create(ctx, newReview("r-2", "parent", baseTime))
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	ok, err := store.Reviews().Exists(ctx, "parent", "l-1")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v; want true", ok, err)
	}
}

func TestReview_CompareAndSwapStatus(t *testing.T) {
	store := seedTrialFixture(t, nil)
	ctx := context.Background()
	if err := store.Reviews().Create(ctx, newReview("r-1", "parent", baseTime)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	change := domain.ReviewStatusChange{ID: "r-1", From: domain.ReviewPending, To: domain.ReviewApproved, At: baseTime}
	if err := store.Reviews().CompareAndSwapStatus(ctx, change); err != nil {
		t.Fatalf("CompareAndSwapStatus failed: %v", err)
	}

	got, _ := store.Reviews().GetByID(ctx, "r-1")
	if got.Status != domain.ReviewApproved {
		t.Errorf("Status = %q, want approved", got.Status)
	}
	if got.ModeratedAt == nil {
		t.Error("ModeratedAt should be set")
	}

	if err := store.Reviews().CompareAndSwapStatus(ctx, change); !errors.Is(err, domain.ErrStaleState) {
		t.Errorf("expected ErrStaleState on second moderation, got %v", err)
	}
}

func TestReview_List_NewestFirstByStatus(t *testing.T) {
	store := seedTrialFixture(t, nil)
	ctx := context.Background()
	mustUser(t, store, "parent-2", domain.RoleParent)

	if err := store.Reviews().Create(ctx, newReview("r-old", "parent", baseTime)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Reviews().Create(ctx, newReview("r-new", "parent-2", baseTime.Add(time.Hour))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pending := domain.ReviewPending
	reviews, err := store.Reviews().List(ctx, domain.ReviewFilter{Status: &pending})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}
	if reviews[0].ID != "r-new" {
		t.Errorf("first = %q, want r-new", reviews[0].ID)
	}
}
