package domain

import "context"

// Template identifies a notification message. Rendering belongs to the
// mail transport; the engine only chooses the template and its payload.
type Template string

const (
	TemplateTrialRequested  Template = "trial_request.created"
	TemplateTrialConfirmed  Template = "trial_request.confirmed"
	TemplateTrialDeclined   Template = "trial_request.declined"
	TemplateListingSubmit   Template = "listing.submitted"
	TemplateListingApproved Template = "listing.approved"
	TemplateListingRejected Template = "listing.rejected"
	TemplateReviewSubmit    Template = "review.submitted"
	TemplateReviewApproved  Template = "review.approved"
	TemplateReviewRejected  Template = "review.rejected"
	TemplateReviewPublished Template = "review.published"
	TemplateWelcomeParent   Template = "welcome.parent"
	TemplateWelcomeProvider Template = "welcome.provider"
	TemplateAccountDeleted  Template = "account.deleted"
	TemplateDigest          Template = "digest.new_listings"
)

// Notification is a single message addressed to one recipient.
type Notification struct {
	Template  Template
	Recipient string
	Payload   map[string]any
}

// Notifier hands notifications off for delivery. Dispatch never blocks on
// delivery and never reports failure to the caller; outcomes are logged.
type Notifier interface {
	Dispatch(ctx context.Context, n Notification)
}

// MailTransport delivers one rendered notification.
type MailTransport interface {
	Send(ctx context.Context, n Notification) error
}
