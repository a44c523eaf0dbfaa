package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
)

type PurchaseHandler struct {
	purchases *usecase.PurchaseUseCase
}

func NewPurchaseHandler(purchases *usecase.PurchaseUseCase) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// GET /api/purchases?all=true
func (h *PurchaseHandler) List(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	if c.Query("all") == "true" {
		if !p.IsAdmin() {
			return errUnauthenticated
		}
		all, err := h.purchases.ListAll(c.Request.Context())
		if err != nil {
			return err
		}
		respondList(c, "Purchases fetched successfully!", all, int64(len(all)))
		return nil
	}
	mine, err := h.purchases.ListMine(c.Request.Context(), p.ID)
	if err != nil {
		return err
	}
	respondList(c, "Purchases fetched successfully!", mine, int64(len(mine)))
	return nil
}

// GET /api/purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.purchases.Detail(c.Request.Context(), p, id)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Purchase fetched successfully!", detail)
	return nil
}

// PUT /api/purchases/:id
func (h *PurchaseHandler) Refund(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	purchase, err := h.purchases.Refund(c.Request.Context(), id)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Purchase refunded successfully!", purchase)
	return nil
}
