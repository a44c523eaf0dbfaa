package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/waste3d/courseplatform-api/internal/domain"
)

const (
	publicProductsKey = "products:list:public"
	publicProductsTTL = 10 * time.Minute
	otpThrottlePrefix = "otp_throttle:"
)

// CatalogCache keeps the anonymous product listing in redis.
type CatalogCache struct {
	client *redis.Client
}

func NewCatalogCache(client *redis.Client) *CatalogCache {
	return &CatalogCache{client: client}
}

type productPage struct {
	Products []domain.Product `json:"products"`
	Total    int64            `json:"total"`
}

// PublicProducts reports ok=false on a miss.
func (c *CatalogCache) PublicProducts(ctx context.Context) (products []domain.Product, total int64, ok bool, err error) {
	val, err := c.client.Get(ctx, publicProductsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	var page productPage
	if err := json.Unmarshal(val, &page); err != nil {
		return nil, 0, false, nil
	}
	return page.Products, page.Total, true, nil
}

func (c *CatalogCache) SetPublicProducts(ctx context.Context, products []domain.Product, total int64) error {
	data, err := json.Marshal(productPage{Products: products, Total: total})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, publicProductsKey, data, publicProductsTTL).Err()
}

func (c *CatalogCache) InvalidateProducts(ctx context.Context) error {
	return c.client.Del(ctx, publicProductsKey).Err()
}

// OTPThrottle allows one OTP send per key per window.
type OTPThrottle struct {
	client *redis.Client
}

func NewOTPThrottle(client *redis.Client) *OTPThrottle {
	return &OTPThrottle{client: client}
}

func (t *OTPThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	return t.client.SetNX(ctx, otpThrottlePrefix+key, 1, window).Result()
}

func (t *OTPThrottle) Release(ctx context.Context, key string) error {
	return t.client.Del(ctx, otpThrottlePrefix+key).Err()
}
