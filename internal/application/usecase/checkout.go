package usecase

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"go.uber.org/zap"
)

// CheckoutSessionPlaceholder is expanded by the provider to the created session id.
const CheckoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

type CheckoutUseCase struct {
	products *repository.ProductRepository
	users    *repository.UserRepository
	access   *repository.AccessRepository
	provider PaymentProvider
	coupons  []domain.PPPCoupon
	appURL   string
	log      *zap.Logger
}

func NewCheckoutUseCase(
	products *repository.ProductRepository,
	users *repository.UserRepository,
	access *repository.AccessRepository,
	provider PaymentProvider,
	coupons []domain.PPPCoupon,
	appURL string,
	log *zap.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		products: products,
		users:    users,
		access:   access,
		provider: provider,
		coupons:  coupons,
		appURL:   strings.TrimRight(appURL, "/"),
		log:      log,
	}
}

type CheckoutResult struct {
	ClientSecret string
	Coupon       *domain.PPPCoupon
}

// CreateSession opens an embedded checkout for a public product the caller does not fully own.
func (uc *CheckoutUseCase) CreateSession(ctx context.Context, caller *domain.Principal, productID uuid.UUID, country string) (*CheckoutResult, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != domain.ProductPublic {
		return nil, domain.ErrProductNotFound
	}

	user, err := uc.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	courseIDs := product.CourseIDs()
	held, err := uc.access.HeldAmong(ctx, user.ID, courseIDs)
	if err != nil {
		return nil, err
	}
	if len(courseIDs) > 0 && len(held) >= len(courseIDs) {
		return nil, domain.ErrProductAlreadyOwned
	}

	coupon := uc.CouponFor(country)
	req := domain.CheckoutRequest{
		ProductID:    product.ID,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         product.Name,
		Description:  product.Description,
		ImageURL:     uc.absoluteURL(product.ImageURL),
		AmountInCent: product.PriceInCents(),
		ReturnURL:    uc.ReturnURL(),
	}
	if coupon != nil {
		req.CouponID = coupon.StripeCouponID
	}

	session, err := uc.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, err
	}
	if session.ClientSecret == "" {
		uc.log.Error("checkout session without client secret", zap.String("session_id", session.ID))
		return nil, domain.ErrMissingClientSecret
	}

	uc.log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("product_id", product.ID.String()),
		zap.String("user_id", user.ID.String()),
	)
	return &CheckoutResult{ClientSecret: session.ClientSecret, Coupon: coupon}, nil
}

// CouponFor returns the purchasing power parity coupon for an ISO country code, if any.
func (uc *CheckoutUseCase) CouponFor(country string) *domain.PPPCoupon {
	if country == "" {
		return nil
	}
	country = strings.ToUpper(country)
	for i := range uc.coupons {
		for _, code := range uc.coupons[i].CountryCodes {
			if strings.EqualFold(code, country) {
				c := uc.coupons[i]
				return &c
			}
		}
	}
	return nil
}

func (uc *CheckoutUseCase) ReturnURL() string {
	return uc.appURL + "/api/webhooks/stripe?stripeSessionId=" + CheckoutSessionPlaceholder
}

// absoluteURL resolves a relative product image against the app URL, since the provider only
// accepts absolute image URLs.
func (uc *CheckoutUseCase) absoluteURL(ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(uc.appURL + "/")
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
