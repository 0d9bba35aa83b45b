package checkout

import (
	"context"
	"errors"

	pkgstripe "github.com/angelmondragon/cellar-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

const (
	stripeModePayment    = "payment"
	stripeUIModeEmbedded = "embedded"
)

type stripeProvider struct {
	sc       *stripe.Client
	currency string
}

// NewStripeProvider adapts Stripe embedded checkout to PaymentProvider.
func NewStripeProvider(api *pkgstripe.Client) (PaymentProvider, error) {
	if api == nil || api.API() == nil {
		return nil, errors.New("stripe client required")
	}
	return &stripeProvider{sc: api.API(), currency: api.Currency()}, nil
}

func (p *stripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*ProviderSession, error) {
	currency := req.Currency
	if currency == "" {
		currency = p.currency
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:      stripe.String(stripeModePayment),
		UIMode:    stripe.String(stripeUIModeEmbedded),
		ReturnURL: stripe.String(req.ReturnURL),
	}
	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(line.Quantity),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(line.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	return fromStripe(s), nil
}

func (p *stripeProvider) GetSession(ctx context.Context, sessionID string) (*ProviderSession, error) {
	s, err := p.sc.V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return nil, err
	}
	return fromStripe(s), nil
}

func fromStripe(s *stripe.CheckoutSession) *ProviderSession {
	if s == nil {
		return nil
	}
	return &ProviderSession{
		ID:            s.ID,
		ClientSecret:  s.ClientSecret,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}
}
