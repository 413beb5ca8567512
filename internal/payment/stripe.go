package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
)

const (
	stripeEventCompleted     = "checkout.session.completed"
	stripeEventAsyncSuccess  = "checkout.session.async_payment_succeeded"
	stripeEventAsyncFailed   = "checkout.session.async_payment_failed"
	stripeEventExpired       = "checkout.session.expired"
	stripeReferenceMetaField = "purchase_id"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	// Backends overrides the API endpoints, for tests.
	Backends *stripe.Backends
}

// Stripe creates Checkout Sessions and verifies Stripe webhooks.
type Stripe struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripe(cfg StripeConfig) *Stripe {
	api := &client.API{}
	api.Init(cfg.SecretKey, cfg.Backends)

	return &Stripe{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) SignatureHeader() string { return "Stripe-Signature" }

func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	const op = "payment.Stripe.CreateSession"

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(s.successURL),
		CancelURL:          stripe.String(s.cancelURL),
		ClientReferenceID:  stripe.String(req.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.UnitCents),
				},
				Quantity: stripe.Int64(req.Quantity),
			},
		},
	}

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	params.Context = ctx
	params.AddMetadata(stripeReferenceMetaField, req.Reference)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Session{ID: sess.ID, RedirectURL: sess.URL}, nil
}

func (s *Stripe) ParseNotification(payload []byte, signatureHeader string) (*Notification, error) {
	const op = "payment.Stripe.ParseNotification"

	event, err := webhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%s: %v:%w", op, err, ErrInvalidSignature)
	}

	var outcome Outcome
	switch event.Type {
	case stripeEventCompleted, stripeEventAsyncSuccess:
		outcome = OutcomeSucceeded
	case stripeEventAsyncFailed:
		outcome = OutcomeFailed
	case stripeEventExpired:
		outcome = OutcomeCancelled
	default:
		return nil, fmt.Errorf("%s: %s:%w", op, event.Type, ErrIgnoredEvent)
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%s:%w", op, ErrMalformedPayload)
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%s: %v:%w", op, err, ErrMalformedPayload)
	}

	// A completed session with a delayed payment method is settled by a
	// later async_payment event.
	if event.Type == stripeEventCompleted && cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, fmt.Errorf("%s: payment %s:%w", op, cs.PaymentStatus, ErrIgnoredEvent)
	}

	ref := cs.ClientReferenceID
	if ref == "" {
		ref = cs.Metadata[stripeReferenceMetaField]
	}

	return &Notification{
		EventID:     event.ID,
		SessionID:   cs.ID,
		Reference:   ref,
		Outcome:     outcome,
		AmountCents: cs.AmountTotal,
		Currency:    string(cs.Currency),
	}, nil
}
