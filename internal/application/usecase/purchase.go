package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const refundWindowDays = 30

type PurchaseUseCase struct {
	purchases *repository.PurchaseRepository
	products  *repository.ProductRepository
	users     *repository.UserRepository
	provider  PaymentProvider
	cache     ProductCache
	log       *zap.Logger
	now       func() time.Time
}

// NewPurchaseUseCase wires purchases. cache may be nil; when set it is invalidated because
// customer counts change with every purchase and refund.
func NewPurchaseUseCase(
	purchases *repository.PurchaseRepository,
	products *repository.ProductRepository,
	users *repository.UserRepository,
	provider PaymentProvider,
	cache ProductCache,
	log *zap.Logger,
) *PurchaseUseCase {
	return &PurchaseUseCase{
		purchases: purchases,
		products:  products,
		users:     users,
		provider:  provider,
		cache:     cache,
		log:       log,
		now:       time.Now,
	}
}

// ReconcileSession fetches the session from the provider and records it. It returns the
// purchased product id.
func (uc *PurchaseUseCase) ReconcileSession(ctx context.Context, sessionID string) (uuid.UUID, error) {
	session, err := uc.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return uuid.Nil, err
	}
	return uc.Reconcile(ctx, session)
}

// Reconcile grants the product's missing courses to the buyer and records the purchase.
// Recording the same session twice yields ErrPurchaseAlreadyRecorded; a buyer who already holds
// every course yields ErrNothingToGrant. Both leave the database untouched.
func (uc *PurchaseUseCase) Reconcile(ctx context.Context, session *domain.CheckoutSession) (uuid.UUID, error) {
	productID, userID, err := sessionOwner(session)
	if err != nil {
		return uuid.Nil, err
	}

	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return productID, err
	}
	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return productID, err
	}

	paid := session.AmountTotal
	if paid == 0 {
		paid = product.PriceInCents()
	}
	purchase := &domain.PurchaseHistory{
		UserID:          userID,
		ProductID:       product.ID,
		StripeSessionID: session.ID,
		PricePaidInCent: paid,
		ProductDetails: datatypes.NewJSONType(domain.ProductSnapshot{
			Name:        product.Name,
			Description: product.Description,
			ImageURL:    product.ImageURL,
		}),
	}

	granted, err := uc.purchases.Record(ctx, purchase, product.CourseIDs())
	if err != nil {
		return productID, err
	}
	uc.invalidate(ctx)

	uc.log.Info("purchase recorded",
		zap.String("session_id", session.ID),
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("courses_granted", len(granted)),
	)
	return productID, nil
}

func sessionOwner(session *domain.CheckoutSession) (productID, userID uuid.UUID, err error) {
	if session == nil || session.Metadata == nil {
		return uuid.Nil, uuid.Nil, domain.ErrMissingMetadata
	}
	productID, err = uuid.Parse(session.Metadata[domain.MetadataProductID])
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrMissingMetadata
	}
	userID, err = uuid.Parse(session.Metadata[domain.MetadataUserID])
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrMissingMetadata
	}
	return productID, userID, nil
}

// Refund returns the money for a purchase younger than the refund window and revokes the
// courses no other active purchase of the buyer still grants.
func (uc *PurchaseUseCase) Refund(ctx context.Context, id uuid.UUID) (*domain.PurchaseHistory, error) {
	purchase, err := uc.purchases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase.RefundAt != nil || purchase.IsRefunded {
		return nil, domain.ErrPurchaseNotFound
	}

	now := uc.now()
	if refundWindowExceeded(purchase.CreatedAt, now) {
		return nil, domain.ErrRefundWindowExpired
	}

	var courseIDs []uuid.UUID
	if purchase.Product != nil {
		courseIDs = purchase.Product.CourseIDs()
	}
	keep, err := uc.purchases.ActiveCourseIDs(ctx, purchase.UserID, purchase.ID)
	if err != nil {
		return nil, err
	}
	revoke := subtract(courseIDs, keep)

	err = uc.purchases.Refund(ctx, purchase, revoke, now, func(ctx context.Context) error {
		session, err := uc.provider.GetCheckoutSession(ctx, purchase.StripeSessionID)
		if err != nil {
			return err
		}
		if session.PaymentIntentID == "" {
			return domain.ErrPaymentIntentMissing
		}
		return uc.provider.Refund(ctx, session.PaymentIntentID)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx)

	uc.log.Info("purchase refunded",
		zap.String("purchase_id", purchase.ID.String()),
		zap.Int("courses_revoked", len(revoke)),
	)
	return purchase, nil
}

// refundWindowExceeded counts partial days as whole days.
func refundWindowExceeded(createdAt, now time.Time) bool {
	age := now.Sub(createdAt)
	if age < 0 {
		age = -age
	}
	days := math.Ceil(age.Hours() / 24)
	return days > refundWindowDays
}

func subtract(want, drop []uuid.UUID) []uuid.UUID {
	skip := make(map[uuid.UUID]struct{}, len(drop))
	for _, id := range drop {
		skip[id] = struct{}{}
	}
	out := []uuid.UUID{}
	for _, id := range want {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (uc *PurchaseUseCase) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.PurchaseHistory, error) {
	return uc.purchases.ListByUser(ctx, userID)
}

func (uc *PurchaseUseCase) ListAll(ctx context.Context) ([]domain.PurchaseHistory, error) {
	return uc.purchases.ListAll(ctx)
}

type Receipt struct {
	ReceiptURL  string              `json:"receiptUrl"`
	PricingRows []domain.PricingRow `json:"pricingRows"`
}

type PurchaseDetail struct {
	Purchase *domain.PurchaseHistory `json:"purchase"`
	Stripe   Receipt                 `json:"stripe"`
}

// Detail returns the caller's purchase with its receipt. Admins may read any purchase. When the
// provider cannot be reached the receipt is built from the stored purchase alone.
func (uc *PurchaseUseCase) Detail(ctx context.Context, caller *domain.Principal, id uuid.UUID) (*PurchaseDetail, error) {
	var (
		purchase *domain.PurchaseHistory
		err      error
	)
	if caller.IsAdmin() {
		purchase, err = uc.purchases.GetByID(ctx, id)
	} else {
		purchase, err = uc.purchases.GetForUser(ctx, id, caller.ID)
	}
	if err != nil {
		return nil, err
	}

	session, err := uc.provider.GetCheckoutSession(ctx, purchase.StripeSessionID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		uc.log.Warn("load checkout session for receipt",
			zap.String("purchase_id", purchase.ID.String()),
			zap.Error(err),
		)
		session = &domain.CheckoutSession{}
	}
	return &PurchaseDetail{
		Purchase: purchase,
		Stripe: Receipt{
			ReceiptURL:  session.ReceiptURL,
			PricingRows: PricingRows(purchase, session),
		},
	}, nil
}

// PricingRows lays out a receipt: the subtotal, each discount and any refund as negative lines,
// and the bold total. A plain purchase is a single total line.
func PricingRows(purchase *domain.PurchaseHistory, session *domain.CheckoutSession) []domain.PricingRow {
	total := session.AmountTotal
	if total == 0 {
		total = purchase.PricePaidInCent
	}
	refund := session.AmountRefunded
	if refund == 0 && purchase.RefundAt != nil {
		refund = total
	}

	var discounted int64
	for _, d := range session.Discounts {
		discounted += d.AmountInCent
	}
	subtotal := session.AmountSubtotal
	if subtotal == 0 {
		subtotal = total + discounted
	}

	if len(session.Discounts) == 0 && refund == 0 {
		return []domain.PricingRow{{Label: "Total", AmountInDollars: dollars(total), IsBold: true}}
	}

	rows := []domain.PricingRow{{Label: "Subtotal", AmountInDollars: dollars(subtotal)}}
	for _, d := range session.Discounts {
		rows = append(rows, domain.PricingRow{Label: d.Label, AmountInDollars: dollars(-d.AmountInCent)})
	}
	if refund > 0 {
		rows = append(rows, domain.PricingRow{Label: "Refund", AmountInDollars: dollars(-refund)})
	}
	return append(rows, domain.PricingRow{Label: "Total", AmountInDollars: dollars(total - refund), IsBold: true})
}

func dollars(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

func (uc *PurchaseUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidateProducts(ctx); err != nil {
		uc.log.Warn("invalidate product cache", zap.Error(err))
	}
}
