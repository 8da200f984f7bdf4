package services

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/shashiranjanraj/storefront/app/services/lookup"
)

// SessionPaid is the payment_status of a settled checkout session.
const SessionPaid = "paid"

// CheckoutSession is the gateway-side view of one payment attempt.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url,omitempty"`
	PaymentStatus string `json:"payment_status"`
}

// SessionLineItem is one priced line sent to the gateway.
type SessionLineItem struct {
	Name       string
	UnitAmount int64 // cents
	Quantity   int64
}

// SessionParams describes a checkout session to create.
type SessionParams struct {
	Currency          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CustomerEmail     string
	LineItems         []SessionLineItem
	Metadata          map[string]string
}

// PaymentGateway creates and reads hosted checkout sessions.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p SessionParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
}

// StripeGateway talks to Stripe. The API key is resolved on every call so a
// key saved from the admin applies without a restart.
type StripeGateway struct {
	secrets lookup.SecretSource
}

func NewStripeGateway(secrets lookup.SecretSource) *StripeGateway {
	return &StripeGateway{secrets: secrets}
}

func (g *StripeGateway) api(ctx context.Context) (*client.API, error) {
	key := strings.TrimSpace(g.secrets.Resolve(ctx, SecretStripeKey))
	if key == "" {
		return nil, ErrPaymentNotConfigured
	}
	return client.New(key, nil), nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p SessionParams) (*CheckoutSession, error) {
	sc, err := g.api(ctx)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.ClientReferenceID),
	}
	params.Context = ctx
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for _, li := range p.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(li.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.Currency),
				UnitAmount: stripe.Int64(li.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
			},
		})
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return toCheckoutSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	sc, err := g.api(ctx)
	if err != nil {
		return nil, err
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := sc.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, err
	}
	return toCheckoutSession(s), nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
	}
}
