package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/neomorfeo/kidvo/internal/adapter/fsm"
	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

// failingListings fails every call with err.
type failingListings struct {
	err error
}

func (f failingListings) Create(context.Context, domain.Listing) error { return f.err }

func (f failingListings) GetByID(context.Context, string) (domain.Listing, error) {
	return domain.Listing{}, f.err
}

func (f failingListings) List(context.Context, domain.ListingFilter) ([]domain.Listing, error) {
	return nil, f.err
}

func (f failingListings) UpdateDetails(context.Context, domain.Listing) error { return f.err }

func (f failingListings) CompareAndSwapStatus(context.Context, domain.ListingStatusChange) (domain.Listing, error) {
	return domain.Listing{}, f.err
}

// staleListings serves one listing but loses every status write.
type staleListings struct {
	failingListings
	listing domain.Listing
}

func (s staleListings) GetByID(context.Context, string) (domain.Listing, error) {
	return s.listing, nil
}

func (s staleListings) CompareAndSwapStatus(context.Context, domain.ListingStatusChange) (domain.Listing, error) {
	return domain.Listing{}, domain.ErrStaleState
}

// stubUsers knows no providers.
type stubUsers struct {
	domain.UserRepository
}

func (stubUsers) GetProviderByUser(_ context.Context, userID string) (domain.Provider, error) {
	return domain.Provider{}, &domain.NotFoundError{Entity: "provider", ID: userID}
}

func (stubUsers) GetProvider(_ context.Context, id string) (domain.Provider, error) {
	return domain.Provider{ID: id, ContactEmail: id + "@club.example.com"}, nil
}

func TestStoreFailures_AreClassified(t *testing.T) {
	notifier := &recordingNotifier{}

	t.Run("dependency", func(t *testing.T) {
		svc := app.NewListingService(stubUsers{}, failingListings{err: errors.New("disk I/O error")}, fsm.NewListing(), notifier)
		_, err := svc.Browse(context.Background(), domain.ListingFilter{})
		assertKind(t, err, domain.KindDependency)

		var dep *domain.DependencyError
		if !errors.As(err, &dep) || dep.Op != "browsing listings" {
			t.Errorf("err = %v, want DependencyError for browsing listings", err)
		}
	})

	t.Run("driver deadline", func(t *testing.T) {
		svc := app.NewListingService(stubUsers{}, failingListings{err: context.DeadlineExceeded}, fsm.NewListing(), notifier)
		_, err := svc.Get(context.Background(), admin, "l-1")
		assertKind(t, err, domain.KindTimeout)
	})

	t.Run("expired context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		svc := app.NewListingService(stubUsers{}, failingListings{err: errors.New("interrupted")}, fsm.NewListing(), notifier)
		_, err := svc.Browse(ctx, domain.ListingFilter{})
		assertKind(t, err, domain.KindTimeout)
	})

	t.Run("not found passes through", func(t *testing.T) {
		svc := app.NewListingService(stubUsers{}, failingListings{err: &domain.NotFoundError{Entity: "listing", ID: "l-1"}}, fsm.NewListing(), notifier)
		_, err := svc.Get(context.Background(), admin, "l-1")
		assertKind(t, err, domain.KindNotFound)
	})

	if n := notifier.count(); n != 0 {
		t.Errorf("failed operations sent %d notifications", n)
	}
}

func TestListingTransition_LostRace(t *testing.T) {
	notifier := &recordingNotifier{}
	repo := staleListings{listing: domain.Listing{ID: "l-1", ProviderID: "p-1", Status: domain.ListingPending}}
	svc := app.NewListingService(stubUsers{}, repo, fsm.NewListing(), notifier)

	_, err := svc.Transition(context.Background(), admin, "l-1", domain.ListingActive)
	assertKind(t, err, domain.KindInvalidTransition)
	if !errors.Is(err, domain.ErrStaleState) {
		t.Errorf("err = %v, want it to wrap ErrStaleState", err)
	}
	if !strings.Contains(err.Error(), `event "approve"`) {
		t.Errorf("err = %q", err)
	}
	if n := notifier.count(); n != 0 {
		t.Errorf("lost race sent %d notifications", n)
	}
}
