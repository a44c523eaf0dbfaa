package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/domain"
)

type SectionHandler struct {
	sections *usecase.SectionUseCase
}

func NewSectionHandler(sections *usecase.SectionUseCase) *SectionHandler {
	return &SectionHandler{sections: sections}
}

type createSectionReq struct {
	Name     string               `json:"name" binding:"required"`
	Status   domain.SectionStatus `json:"status" binding:"required,oneof=public private"`
	CourseID string               `json:"courseId" binding:"required,uuid"`
}

type updateSectionReq struct {
	Name   string               `json:"name" binding:"required"`
	Status domain.SectionStatus `json:"status" binding:"required,oneof=public private"`
}

type reorderSectionsReq struct {
	SectionIDs []string `json:"sectionIds" binding:"required,min=1,dive,uuid"`
}

// POST /api/sections
func (h *SectionHandler) Create(c *gin.Context) error {
	var req createSectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	section, err := h.sections.Create(c.Request.Context(), uuid.MustParse(req.CourseID), req.Name, req.Status)
	if err != nil {
		return err
	}
	respond(c, http.StatusCreated, "Section created successfully!", section)
	return nil
}

// PUT /api/sections/:id
func (h *SectionHandler) Update(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateSectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	section, err := h.sections.Update(c.Request.Context(), id, req.Name, req.Status)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Section updated successfully!", section)
	return nil
}

// DELETE /api/sections/:id
func (h *SectionHandler) Delete(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.sections.Delete(c.Request.Context(), id); err != nil {
		return err
	}
	respond(c, http.StatusOK, "Section deleted successfully!", nil)
	return nil
}

// PUT /api/sections/order
func (h *SectionHandler) Reorder(c *gin.Context) error {
	var req reorderSectionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	ids, err := parseIDs(req.SectionIDs)
	if err != nil {
		return err
	}
	if err := h.sections.Reorder(c.Request.Context(), ids); err != nil {
		return err
	}
	respond(c, http.StatusOK, "Sections reordered successfully!", nil)
	return nil
}
