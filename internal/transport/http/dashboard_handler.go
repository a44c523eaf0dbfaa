package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
)

type DashboardHandler struct {
	dashboard *usecase.DashboardUseCase
}

func NewDashboardHandler(dashboard *usecase.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/dashboard/admin
func (h *DashboardHandler) Admin(c *gin.Context) error {
	stats, err := h.dashboard.Admin(c.Request.Context())
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Dashboard fetched successfully!", stats)
	return nil
}
