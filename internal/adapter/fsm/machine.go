package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// Compile-time check: Machine implements domain.TransitionValidator.
var _ domain.TransitionValidator[domain.ListingStatus] = (*Machine[domain.ListingStatus])(nil)

// buildEvents converts a transition table into looplab/fsm EventDesc format.
// Transitions sharing event and destination collapse into one EventDesc
// with several sources (approve from draft, pending and paused).
func buildEvents[S ~string](table []domain.Transition[S]) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range table {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Machine validates transitions for one entity type using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the entity's current state, because looplab/fsm tracks state internally.
type Machine[S ~string] struct {
	entity string
	events []loopfsm.EventDesc
}

// New creates a machine for entity from its transition table.
func New[S ~string](entity string, table []domain.Transition[S]) *Machine[S] {
	return &Machine[S]{entity: entity, events: buildEvents(table)}
}

// NewListing returns the listing visibility machine.
func NewListing() *Machine[domain.ListingStatus] {
	return New("listing", domain.ListingTransitions)
}

// NewTrial returns the trial request machine.
func NewTrial() *Machine[domain.TrialStatus] {
	return New("trial_request", domain.TrialTransitions)
}

// NewReview returns the review moderation machine.
func NewReview() *Machine[domain.ReviewStatus] {
	return New("review", domain.ReviewTransitions)
}

// Apply checks if the given event is valid from the current status and
// returns the destination status. Returns a domain.TransitionError if
// the transition is not allowed.
func (m *Machine[S]) Apply(ctx context.Context, current S, event domain.Event) (S, error) {
	machine := loopfsm.NewFSM(string(current), m.events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Entity:  m.entity,
				Event:   event,
				Current: string(current),
			}
		}
		return "", err
	}

	return S(machine.Current()), nil
}
