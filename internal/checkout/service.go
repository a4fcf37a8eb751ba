// Package checkout creates hosted Stripe checkout sessions for club
// membership. The registration id travels as client_reference_id; it is the
// only correlation the settlement webhook gets back.
package checkout

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/bamika-fc/backend/internal/models"
)

// Membership pricing is a single flat monthly line item, not a pricing table.
const (
	MembershipProductName = "Bamika FC Membership"
	MembershipAmountCents = 5000 // $50.00
	MembershipCurrency    = string(stripe.CurrencyUSD)
)

// SessionCreator creates a checkout session for a registration and returns
// the hosted checkout URL.
type SessionCreator interface {
	CreateSession(ctx context.Context, reg *models.Registration, successURL, cancelURL string) (string, error)
}

// Service implements SessionCreator against the Stripe API.
type Service struct {
	api    *client.API
	logger *zap.Logger
}

// NewService creates a Stripe-backed checkout service.
func NewService(secretKey string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Service{api: api, logger: logger}
}

// BuildSessionParams assembles the subscription checkout parameters for a
// registration. Split out so the wire shape is testable without the API.
func BuildSessionParams(reg *models.Registration, successURL, cancelURL string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(MembershipCurrency),
					UnitAmount: stripe.Int64(MembershipAmountCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(MembershipProductName),
						Description: stripe.String(fmt.Sprintf("Monthly membership for %s", reg.FullName())),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(reg.ID.String()),
	}
	params.AddMetadata("registration_id", reg.ID.String())
	return params
}

// CreateSession creates a Stripe subscription checkout session bound to the
// registration and returns its hosted URL. No idempotency key is attached;
// a retried request creates a fresh session.
func (s *Service) CreateSession(ctx context.Context, reg *models.Registration, successURL, cancelURL string) (string, error) {
	params := BuildSessionParams(reg, successURL, cancelURL)
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	s.logger.Info("checkout session created",
		zap.String("registration_id", reg.ID.String()),
		zap.String("session_id", sess.ID))
	return sess.URL, nil
}
