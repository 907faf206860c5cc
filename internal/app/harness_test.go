package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/neomorfeo/kidvo/internal/adapter/fsm"
	"github.com/neomorfeo/kidvo/internal/adapter/sqlite"
	"github.com/neomorfeo/kidvo/internal/app"
	"github.com/neomorfeo/kidvo/internal/domain"
)

// --- Mocks ---

// recordingNotifier captures every dispatched notification.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Dispatch(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) byTemplate(tpl domain.Template) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.sent {
		if n.Template == tpl {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// --- Harness ---

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type harness struct {
	store    *sqlite.Store
	notifier *recordingNotifier
	listings *app.ListingService
	trials   *app.TrialService
	reviews  *app.ReviewService
	accounts *app.AccountService
	saves    *app.SaveService
	digest   *app.DigestService

	mu  sync.Mutex
	now time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{store: store, notifier: &recordingNotifier{}, now: baseTime}
	opts := []app.Option{
		app.WithClock(h.clock),
		app.WithModerationEmail("moderation@kidvo.example.com"),
		app.WithAppURL("https://kidvo.example.com/"),
	}

	h.listings = app.NewListingService(store.Users(), store.Listings(), fsm.NewListing(), h.notifier, opts...)
	h.trials = app.NewTrialService(store.Users(), store.Listings(), store.TrialRequests(), fsm.NewTrial(), h.notifier, opts...)
	h.reviews = app.NewReviewService(store.Users(), store.Listings(), store.TrialRequests(), store.Reviews(), fsm.NewReview(), h.notifier, opts...)
	h.accounts = app.NewAccountService(store.Users(), store.Accounts(), h.notifier, opts...)
	h.saves = app.NewSaveService(store.Users(), store.Listings(), store.Saves(), opts...)
	h.digest = app.NewDigestService(store.Digest(), h.notifier, opts...)
	return h
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = h.now.Add(d)
}

func actor(id string, role domain.Role) domain.Actor {
	return domain.Actor{UserID: id, Role: role, Email: id + "@example.com"}
}

var admin = actor("admin", domain.RoleAdmin)

// register stores a profile for a through the account service.
func (h *harness) register(t *testing.T, a domain.Actor) {
	t.Helper()
	if _, err := h.accounts.Register(context.Background(), a, app.ProfileInput{
		FullName: "User " + a.UserID,
		City:     "Montevideo",
		Role:     a.Role,
	}); err != nil {
		t.Fatalf("register %s failed: %v", a.UserID, err)
	}
}

// provider registers a and opens its provider profile.
func (h *harness) provider(t *testing.T, a domain.Actor) domain.Provider {
	t.Helper()
	h.register(t, a)
	p, err := h.accounts.CreateProvider(context.Background(), a, app.ProviderInput{
		DisplayName:  "Club " + a.UserID,
		ContactEmail: a.UserID + "@club.example.com",
		ContactPhone: ptr("+598 99 000 000"),
	})
	if err != nil {
		t.Fatalf("create provider %s failed: %v", a.UserID, err)
	}
	return p
}

func listingInput(total *int) app.ListingInput {
	return app.ListingInput{
		CategoryID:     "sports",
		AreaID:         "centro",
		Title:          "Junior Football",
		AgeMin:         5,
		AgeMax:         9,
		PriceMonthly:   1500,
		SpotsTotal:     total,
		TrialAvailable: true,
		Schedules: []domain.Schedule{
			{DayOfWeek: 0, TimeStart: "17:00", TimeEnd: "18:00"},
		},
	}
}

// activeListing creates a listing owned by owner and approves it.
func (h *harness) activeListing(t *testing.T, owner domain.Actor, total *int) domain.Listing {
	t.Helper()
	ctx := context.Background()
	l, err := h.listings.Create(ctx, owner, listingInput(total))
	if err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
	l, err = h.listings.Transition(ctx, admin, l.ID, domain.ListingActive)
	if err != nil {
		t.Fatalf("approve listing failed: %v", err)
	}
	return l
}

func (h *harness) requestTrial(t *testing.T, parent domain.Actor, listingID string) domain.TrialRequest {
	t.Helper()
	req, err := h.trials.Create(context.Background(), parent, app.TrialInput{
		ListingID:    listingID,
		PreferredDay: ptr(0),
	})
	if err != nil {
		t.Fatalf("create trial request failed: %v", err)
	}
	return req
}

func (h *harness) spotsAvailable(t *testing.T, listingID string) int {
	t.Helper()
	l, err := h.store.Listings().GetByID(context.Background(), listingID)
	if err != nil {
		t.Fatalf("loading listing: %v", err)
	}
	if l.Capacity.Available == nil {
		t.Fatalf("listing %s has untracked capacity", listingID)
	}
	return *l.Capacity.Available
}

func assertKind(t *testing.T, err error, want domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := domain.KindOf(err); got != want {
		t.Errorf("KindOf(%v) = %s, want %s", err, got, want)
	}
}
