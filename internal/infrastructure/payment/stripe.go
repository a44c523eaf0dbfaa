// Package payment adapts the Stripe API to the provider-neutral checkout types.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/waste3d/courseplatform-api/internal/domain"
)

type StripeProvider struct {
	sessions      session.Client
	refunds       refund.Client
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeProvider{
		sessions:      session.Client{B: backend, Key: secretKey},
		refunds:       refund.Client{B: backend, Key: secretKey},
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession opens an embedded, single-item payment session.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		UIMode:        stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		ReturnURL:     stripe.String(req.ReturnURL),
		CustomerEmail: stripe.String(req.Email),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ReceiptEmail: stripe.String(req.Email),
		},
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(req.AmountInCent),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.Name),
					Description: stripe.String(req.Description),
					Images:      stripe.StringSlice([]string{req.ImageURL}),
				},
			},
		}},
	}
	if req.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(req.CouponID)}}
	}
	params.AddMetadata(domain.MetadataProductID, req.ProductID.String())
	params.AddMetadata(domain.MetadataUserID, req.UserID.String())
	params.Context = ctx

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	return toSession(s), nil
}

// GetCheckoutSession retrieves a session with its charge and discount details expanded.
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("payment_intent.latest_charge")
	params.AddExpand("total_details.breakdown.discounts")
	params.Context = ctx

	s, err := p.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get session: %w", err)
	}
	return toSession(s), nil
}

func (p *StripeProvider) Refund(ctx context.Context, paymentIntentID string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentIntentID)}
	params.Context = ctx
	if _, err := p.refunds.New(params); err != nil {
		return fmt.Errorf("stripe refund: %w", err)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout events.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*domain.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	out := &domain.WebhookEvent{ID: event.ID, Type: domain.WebhookEventType(event.Type)}
	if !out.CompletesCheckout() {
		return out, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event has no data", domain.ErrInvalidWebhook)
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", domain.ErrInvalidWebhook, err)
	}
	out.Session = toSession(&s)
	return out, nil
}

func toSession(s *stripe.CheckoutSession) *domain.CheckoutSession {
	out := &domain.CheckoutSession{
		ID:             s.ID,
		ClientSecret:   s.ClientSecret,
		Metadata:       s.Metadata,
		AmountTotal:    s.AmountTotal,
		AmountSubtotal: s.AmountSubtotal,
	}
	if pi := s.PaymentIntent; pi != nil {
		out.PaymentIntentID = pi.ID
		if ch := pi.LatestCharge; ch != nil {
			out.ReceiptURL = ch.ReceiptURL
			out.AmountRefunded = ch.AmountRefunded
		}
	}
	if td := s.TotalDetails; td != nil && td.Breakdown != nil {
		for _, d := range td.Breakdown.Discounts {
			out.Discounts = append(out.Discounts, domain.CheckoutDiscount{
				Label:        discountLabel(d.Discount),
				AmountInCent: d.Amount,
			})
		}
	}
	return out
}

func discountLabel(d *stripe.Discount) string {
	if d == nil || d.Coupon == nil {
		return "Discount"
	}
	name := d.Coupon.Name
	if name == "" {
		name = "Discount"
	}
	if d.Coupon.PercentOff > 0 {
		return fmt.Sprintf("%s (%g%% off)", name, d.Coupon.PercentOff)
	}
	return name
}
