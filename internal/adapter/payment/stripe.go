package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/app/config"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	eventCheckoutSessionCompleted = "checkout.session.completed"
	eventPaymentIntentSucceeded   = "payment_intent.succeeded"
)

type priceAPI interface {
	New(params *stripe.PriceParams) (*stripe.Price, error)
}

type paymentLinkAPI interface {
	New(params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error)
}

type StripeProvider struct {
	prices        priceAPI
	links         paymentLinkAPI
	webhookSecret string
}

func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	sc := client.New(cfg.SecretKey, nil)
	return &StripeProvider{
		prices:        sc.Prices,
		links:         sc.PaymentLinks,
		webhookSecret: cfg.WebhookSecret,
	}
}

// CreatePaymentLink creates a one-off price for the rental and a payment link
// that redirects to SuccessURL after completion.
func (p *StripeProvider) CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error) {
	if req.UnitAmount <= 0 {
		return "", fmt.Errorf("unit amount must be positive, got %d", req.UnitAmount)
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(strings.ToLower(req.Currency)),
		UnitAmount: stripe.Int64(req.UnitAmount),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(req.ProductName),
		},
	}
	priceParams.Context = ctx
	price, err := p.prices.New(priceParams)
	if err != nil {
		return "", fmt.Errorf("failed to create price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(price.ID), Quantity: stripe.Int64(quantity)},
		},
		AfterCompletion: &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(req.SuccessURL),
			},
		},
	}
	linkParams.Context = ctx
	// Link metadata only reaches Checkout Sessions; payment_intent events need
	// their own copy.
	intentMetadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		linkParams.AddMetadata(k, v)
		intentMetadata[k] = v
	}
	linkParams.PaymentIntentData = &stripe.PaymentLinkPaymentIntentDataParams{Metadata: intentMetadata}

	link, err := p.links.New(linkParams)
	if err != nil {
		return "", fmt.Errorf("failed to create payment link: %w", err)
	}
	return link.URL, nil
}

func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*CompletionEvent, error) {
	if signature == "" || p.webhookSecret == "" {
		return nil, ErrMissingSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return completionFromEvent(event)
}

func completionFromEvent(event stripe.Event) (*CompletionEvent, error) {
	if event.Data == nil {
		return nil, nil
	}

	var metadata map[string]string
	switch event.Type {
	case eventCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		metadata = session.Metadata
	case eventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		metadata = pi.Metadata
	default:
		return nil, nil
	}

	return &CompletionEvent{
		EventID:       event.ID,
		EventType:     string(event.Type),
		ListingID:     metadata[MetadataListingID],
		ApplicationID: metadata[MetadataApplicationID],
		ApplicantUUID: metadata[MetadataApplicantUUID],
		Token:         metadata[MetadataToken],
	}, nil
}
