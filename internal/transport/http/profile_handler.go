package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
)

type ProfileHandler struct {
	profiles *usecase.ProfileUseCase
}

func NewProfileHandler(profiles *usecase.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type updateProfileReq struct {
	FirstName string  `json:"firstName" binding:"required,min=3"`
	LastName  string  `json:"lastName" binding:"required,min=3"`
	ImageURL  *string `json:"imageUrl" binding:"omitempty,url"`
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.Get(c.Request.Context(), p.ID)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Profile fetched successfully!", profile)
	return nil
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	profile, err := h.profiles.Update(c.Request.Context(), p.ID, usecase.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Profile updated successfully!", profile)
	return nil
}
