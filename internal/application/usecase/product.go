package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"go.uber.org/zap"
)

type ProductUseCase struct {
	products  *repository.ProductRepository
	purchases *repository.PurchaseRepository
	cache     ProductCache
	log       *zap.Logger
}

// NewProductUseCase wires product management. cache may be nil.
func NewProductUseCase(products *repository.ProductRepository, purchases *repository.PurchaseRepository, cache ProductCache, log *zap.Logger) *ProductUseCase {
	return &ProductUseCase{products: products, purchases: purchases, cache: cache, log: log}
}

type ProductInput struct {
	Name          string
	Description   string
	ImageURL      string
	PriceInDollar decimal.Decimal
	Status        domain.ProductStatus
	CourseIDs     []uuid.UUID
}

func (uc *ProductUseCase) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		Name:          in.Name,
		Description:   in.Description,
		ImageURL:      in.ImageURL,
		PriceInDollar: in.PriceInDollar,
		Status:        in.Status,
	}
	if err := uc.products.Create(ctx, product, dedupe(in.CourseIDs)); err != nil {
		return nil, err
	}
	uc.invalidate(ctx)
	product.CoursesCount = int64(len(product.CourseProducts))
	return product, nil
}

func (uc *ProductUseCase) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	fields := map[string]any{
		"name":            in.Name,
		"description":     in.Description,
		"image_url":       in.ImageURL,
		"price_in_dollar": in.PriceInDollar,
		"status":          in.Status,
	}
	product, err := uc.products.Update(ctx, id, fields, dedupe(in.CourseIDs))
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx)
	return product, nil
}

func (uc *ProductUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.products.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

// List serves the public listing from cache when possible. Listings that include private
// products always hit the database.
func (uc *ProductUseCase) List(ctx context.Context, includePrivate bool) ([]domain.Product, int64, error) {
	if includePrivate || uc.cache == nil {
		return uc.products.List(ctx, includePrivate)
	}

	products, total, ok, err := uc.cache.PublicProducts(ctx)
	if err != nil {
		uc.log.Warn("read product cache", zap.Error(err))
	}
	if ok {
		return products, total, nil
	}

	products, total, err = uc.products.List(ctx, false)
	if err != nil {
		return nil, 0, err
	}
	if err := uc.cache.SetPublicProducts(ctx, products, total); err != nil {
		uc.log.Warn("write product cache", zap.Error(err))
	}
	return products, total, nil
}

// Get hides private products from everyone but admins.
func (uc *ProductUseCase) Get(ctx context.Context, caller *domain.Principal, id uuid.UUID) (*domain.Product, error) {
	product, err := uc.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Status != domain.ProductPublic && !caller.IsAdmin() {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (uc *ProductUseCase) HasAccess(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return uc.purchases.HasActive(ctx, userID, productID)
}

func (uc *ProductUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidateProducts(ctx); err != nil {
		uc.log.Warn("invalidate product cache", zap.Error(err))
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
