package domain

import "github.com/google/uuid"

// CheckoutRequest describes one embedded checkout for a single product.
type CheckoutRequest struct {
	ProductID    uuid.UUID
	UserID       uuid.UUID
	Email        string
	Name         string
	Description  string
	ImageURL     string
	AmountInCent int64
	CouponID     string
	ReturnURL    string
}

type CheckoutDiscount struct {
	Label        string
	AmountInCent int64
}

// CheckoutSession is the provider-neutral view of a hosted checkout.
type CheckoutSession struct {
	ID              string
	ClientSecret    string
	Metadata        map[string]string
	AmountTotal     int64
	AmountSubtotal  int64
	PaymentIntentID string
	ReceiptURL      string
	AmountRefunded  int64
	Discounts       []CheckoutDiscount
}

const (
	MetadataProductID = "productId"
	MetadataUserID    = "userId"
)

type WebhookEventType string

const (
	EventCheckoutCompleted             WebhookEventType = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded WebhookEventType = "checkout.session.async_payment_succeeded"
)

type WebhookEvent struct {
	ID      string
	Type    WebhookEventType
	Session *CheckoutSession
}

// CompletesCheckout reports whether the event means the buyer has paid.
func (e *WebhookEvent) CompletesCheckout() bool {
	return e.Type == EventCheckoutCompleted || e.Type == EventCheckoutAsyncPaymentSucceeded
}
