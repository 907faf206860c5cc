package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// Option configures a service.
type Option func(*base)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) { b.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithModerationEmail sets the inbox notified about new listings and reviews.
// An empty address disables those notices.
func WithModerationEmail(addr string) Option {
	return func(b *base) { b.moderationEmail = addr }
}

// WithAppURL sets the public base URL used to build links in notifications.
func WithAppURL(url string) Option {
	return func(b *base) { b.appURL = strings.TrimSuffix(url, "/") }
}

// base holds the collaborators every service shares.
type base struct {
	notifier        domain.Notifier
	logger          *slog.Logger
	now             func() time.Time
	moderationEmail string
	appURL          string
}

func newBase(notifier domain.Notifier, opts []Option) base {
	b := base{
		notifier: notifier,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) clock() time.Time {
	return b.now().UTC()
}

func (b *base) link(path string) string {
	return b.appURL + path
}

// notify dispatches n. It must only be called after the write that
// triggered it has committed.
func (b *base) notify(ctx context.Context, n domain.Notification) {
	if n.Recipient == "" {
		b.logger.WarnContext(ctx, "notification skipped: no recipient", "template", n.Template)
		return
	}
	b.notifier.Dispatch(ctx, n)
}

// storeErr passes classified errors through and wraps everything else as a
// dependency failure. A deadline on ctx is reported as a timeout even when
// the driver returns its own interruption error.
func storeErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = errors.Join(domain.ErrTimeout, err)
	}
	switch domain.KindOf(err) {
	case domain.KindDependency, domain.KindTimeout:
		var dep *domain.DependencyError
		if errors.As(err, &dep) {
			return err
		}
		return &domain.DependencyError{Op: op, Err: err}
	default:
		return err
	}
}

// lostRace reports a conditional write that matched no row.
func lostRace(entity string, event domain.Event, current string) error {
	return fmt.Errorf("%w (%w)", &domain.TransitionError{
		Entity:  entity,
		Event:   event,
		Current: current,
	}, domain.ErrStaleState)
}

func requireActor(actor domain.Actor) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthorized
	}
	return nil
}

func requireAdmin(actor domain.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return &domain.ForbiddenError{Reason: "admin role required"}
	}
	return nil
}

// loadProfile returns the caller's user row. An authenticated caller with
// no stored profile may not act on the marketplace yet.
func loadProfile(ctx context.Context, users domain.UserRepository, actor domain.Actor) (domain.User, error) {
	if err := requireActor(actor); err != nil {
		return domain.User{}, err
	}
	user, err := users.GetUser(ctx, actor.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, &domain.ForbiddenError{Reason: "profile not registered"}
	}
	if err != nil {
		return domain.User{}, storeErr(ctx, "loading profile", err)
	}
	return user, nil
}

// ownedProvider returns the caller's provider profile, or nil when the
// caller has none.
func ownedProvider(ctx context.Context, users domain.UserRepository, actor domain.Actor) (*domain.Provider, error) {
	p, err := users.GetProviderByUser(ctx, actor.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(ctx, "loading provider", err)
	}
	return &p, nil
}

func displayName(u domain.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}
