// Package payment talks to the payment provider: it mints hosted payment links
// and turns signed provider callbacks into completion events.
package payment

import (
	"context"
	"errors"
)

// Metadata keys attached to every payment link. The webhook relies on them to
// correlate a completed payment with its rental.
const (
	MetadataListingID     = "listingId"
	MetadataApplicationID = "applicationId"
	MetadataApplicantUUID = "applicantUuid"
	MetadataToken         = "secureString"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature/secret")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type LinkRequest struct {
	ProductName string
	// UnitAmount is in minor currency units.
	UnitAmount int64
	Currency   string
	Quantity   int64
	SuccessURL string
	Metadata   map[string]string
}

// Provider creates hosted payment-collection links.
type Provider interface {
	CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error)
}

// CompletionEvent is a verified provider callback reporting a finished payment.
type CompletionEvent struct {
	EventID       string
	EventType     string
	ListingID     string
	ApplicationID string
	ApplicantUUID string
	Token         string
}

// Complete reports whether the event carries the full correlation metadata.
func (e *CompletionEvent) Complete() bool {
	return e.ListingID != "" && e.ApplicationID != "" && e.ApplicantUUID != "" && e.Token != ""
}

// WebhookVerifier authenticates a raw webhook body. It returns a nil event,
// and no error, for event types that do not complete a payment.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*CompletionEvent, error)
}
