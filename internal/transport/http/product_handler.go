package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/geo"
	"github.com/waste3d/courseplatform-api/internal/middleware"
)

type ProductHandler struct {
	products *usecase.ProductUseCase
	checkout *usecase.CheckoutUseCase
	country  *geo.CountryResolver
}

func NewProductHandler(products *usecase.ProductUseCase, checkout *usecase.CheckoutUseCase, country *geo.CountryResolver) *ProductHandler {
	return &ProductHandler{products: products, checkout: checkout, country: country}
}

type productReq struct {
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description" binding:"required"`
	ImageURL      string               `json:"imageUrl" binding:"required"`
	PriceInDollar decimal.Decimal      `json:"priceInDollar"`
	Status        domain.ProductStatus `json:"status" binding:"required,oneof=public private"`
	CourseIDs     []string             `json:"courseIds" binding:"required,min=1,dive,uuid"`
}

func (r productReq) input() (usecase.ProductInput, error) {
	if r.PriceInDollar.IsNegative() {
		return usecase.ProductInput{}, invalidPayload(errors.New("priceInDollar must not be negative"))
	}
	ids, err := parseIDs(r.CourseIDs)
	if err != nil {
		return usecase.ProductInput{}, err
	}
	return usecase.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		ImageURL:      r.ImageURL,
		PriceInDollar: r.PriceInDollar.Round(2),
		Status:        r.Status,
		CourseIDs:     ids,
	}, nil
}

type checkoutRes struct {
	ClientSecret string            `json:"clientSecret"`
	Coupon       *domain.PPPCoupon `json:"coupon,omitempty"`
}

type accessRes struct {
	HasAccess bool `json:"hasAccess"`
}

// POST /api/products
func (h *ProductHandler) Create(c *gin.Context) error {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	product, err := h.products.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	respond(c, http.StatusCreated, "Product created successfully!", product)
	return nil
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	product, err := h.products.Update(c.Request.Context(), id, in)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Product updated successfully!", product)
	return nil
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		return err
	}
	respond(c, http.StatusOK, "Product deleted successfully!", nil)
	return nil
}

// GET /api/products?showAllProducts=true
func (h *ProductHandler) List(c *gin.Context) error {
	p, _ := middleware.CurrentUser(c)
	includePrivate := c.Query("showAllProducts") == "true" && p.IsAdmin()
	products, total, err := h.products.List(c.Request.Context(), includePrivate)
	if err != nil {
		return err
	}
	respondList(c, "Products fetched successfully!", products, total)
	return nil
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, _ := middleware.CurrentUser(c)
	product, err := h.products.Get(c.Request.Context(), p, id)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Product fetched successfully!", product)
	return nil
}

// GET /api/products/:id/user-access
func (h *ProductHandler) UserAccess(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ok, err := h.products.HasAccess(c.Request.Context(), p.ID, id)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Access checked successfully!", accessRes{HasAccess: ok})
	return nil
}

func (h *ProductHandler) countryOf(c *gin.Context) string {
	return h.country.Resolve(c.GetHeader(geo.CountryHeader), c.ClientIP())
}

// GET /api/products/:id/coupon
func (h *ProductHandler) Coupon(c *gin.Context) error {
	if _, err := pathID(c, "id"); err != nil {
		return err
	}
	coupon := h.checkout.CouponFor(h.countryOf(c))
	if coupon == nil {
		respond(c, http.StatusOK, "No discount available!", nil)
		return nil
	}
	respond(c, http.StatusOK, "Discount available!", coupon)
	return nil
}

// POST /api/products/:id/checkout
func (h *ProductHandler) Checkout(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := h.checkout.CreateSession(c.Request.Context(), p, id, h.countryOf(c))
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Checkout session created successfully!", checkoutRes{
		ClientSecret: res.ClientSecret,
		Coupon:       res.Coupon,
	})
	return nil
}
