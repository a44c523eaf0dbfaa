package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
)

type CourseHandler struct {
	courses *usecase.CourseUseCase
}

func NewCourseHandler(courses *usecase.CourseUseCase) *CourseHandler {
	return &CourseHandler{courses: courses}
}

type courseReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// POST /api/courses
func (h *CourseHandler) Create(c *gin.Context) error {
	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	course, err := h.courses.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	respond(c, http.StatusCreated, "Course created successfully!", course)
	return nil
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) error {
	courses, total, err := h.courses.List(c.Request.Context())
	if err != nil {
		return err
	}
	respondList(c, "Courses fetched successfully!", courses, total)
	return nil
}

// GET /api/courses/:id
func (h *CourseHandler) Get(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.courses.Get(c.Request.Context(), p, id)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Course fetched successfully!", course)
	return nil
}

// GET /api/courses/my-courses
func (h *CourseHandler) MyCourses(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	courses, err := h.courses.MyCourses(c.Request.Context(), p.ID)
	if err != nil {
		return err
	}
	respondList(c, "Courses fetched successfully!", courses, int64(len(courses)))
	return nil
}

// PUT /api/courses/:id
func (h *CourseHandler) Update(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	course, err := h.courses.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Course updated successfully!", course)
	return nil
}

// DELETE /api/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.courses.Delete(c.Request.Context(), id); err != nil {
		return err
	}
	respond(c, http.StatusOK, "Course deleted successfully!", nil)
	return nil
}
