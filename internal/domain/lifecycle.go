package domain

// Event represents an action that triggers a state transition.
type Event string

const (
	EventApprove Event = "approve"
	EventDecline Event = "decline"
	EventPause   Event = "pause"
	EventUnpause Event = "unpause"
	EventConfirm Event = "confirm"
	EventCancel  Event = "cancel"
	EventReject  Event = "reject"
)

// ListingStatus represents the visibility state of a listing.
type ListingStatus string

const (
	ListingDraft   ListingStatus = "draft"
	ListingPending ListingStatus = "pending"
	ListingActive  ListingStatus = "active"
	ListingPaused  ListingStatus = "paused"
)

// TrialStatus represents the state of a trial-class request.
type TrialStatus string

const (
	TrialPending   TrialStatus = "pending"
	TrialConfirmed TrialStatus = "confirmed"
	TrialDeclined  TrialStatus = "declined"
	TrialCancelled TrialStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s TrialStatus) Terminal() bool {
	return s == TrialConfirmed || s == TrialDeclined || s == TrialCancelled
}

// ReviewStatus represents the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Transition defines a valid state change: an event moves an entity from Src to Dst.
type Transition[S ~string] struct {
	Event Event
	Src   S
	Dst   S
}

// ListingTransitions defines all valid state changes in the listing lifecycle.
// Creation always lands in pending; draft is only reachable by declining.
var ListingTransitions = []Transition[ListingStatus]{
	{Event: EventApprove, Src: ListingDraft, Dst: ListingActive},
	{Event: EventApprove, Src: ListingPending, Dst: ListingActive},
	{Event: EventApprove, Src: ListingPaused, Dst: ListingActive},
	{Event: EventDecline, Src: ListingPending, Dst: ListingDraft},
	{Event: EventPause, Src: ListingActive, Dst: ListingPaused},
	{Event: EventUnpause, Src: ListingPaused, Dst: ListingActive},
}

// TrialTransitions defines all valid state changes for trial requests.
// Every exit is from pending; the other three states are terminal.
var TrialTransitions = []Transition[TrialStatus]{
	{Event: EventConfirm, Src: TrialPending, Dst: TrialConfirmed},
	{Event: EventDecline, Src: TrialPending, Dst: TrialDeclined},
	{Event: EventCancel, Src: TrialPending, Dst: TrialCancelled},
}

// ReviewTransitions defines all valid moderation outcomes.
var ReviewTransitions = []Transition[ReviewStatus]{
	{Event: EventApprove, Src: ReviewPending, Dst: ReviewApproved},
	{Event: EventReject, Src: ReviewPending, Dst: ReviewRejected},
}
