package usecase

import (
	"context"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"
)

// PaymentProvider is the hosted checkout backend. Stripe implements it in production.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*domain.CheckoutSession, error)
	Refund(ctx context.Context, paymentIntentID string) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SendThrottle reports whether an action keyed by key may run now. Release frees a slot taken by
// an action that did not happen.
type SendThrottle interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type ProductCache interface {
	PublicProducts(ctx context.Context) ([]domain.Product, int64, bool, error)
	SetPublicProducts(ctx context.Context, products []domain.Product, total int64) error
	InvalidateProducts(ctx context.Context) error
}
