package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/middleware"
)

type LessonHandler struct {
	lessons    *usecase.LessonUseCase
	navigation *usecase.NavigationUseCase
}

func NewLessonHandler(lessons *usecase.LessonUseCase, navigation *usecase.NavigationUseCase) *LessonHandler {
	return &LessonHandler{lessons: lessons, navigation: navigation}
}

type lessonReq struct {
	Name           string              `json:"name" binding:"required"`
	Description    string              `json:"description"`
	YoutubeVideoID string              `json:"youtubeVideoId" binding:"required"`
	SectionID      string              `json:"sectionId" binding:"required,uuid"`
	Status         domain.LessonStatus `json:"status" binding:"required,oneof=public private preview"`
}

type updateLessonReq struct {
	Name           string              `json:"name" binding:"required"`
	Description    string              `json:"description"`
	YoutubeVideoID string              `json:"youtubeVideoId" binding:"required"`
	Status         domain.LessonStatus `json:"status" binding:"required,oneof=public private preview"`
}

type reorderLessonsReq struct {
	LessonIDs []string `json:"lessonIds" binding:"required,min=1,dive,uuid"`
}

type completeLessonReq struct {
	LessonID string `json:"lessonId" binding:"required,uuid"`
}

type positionQuery struct {
	LessonID  string `form:"lessonId" binding:"required,uuid"`
	SectionID string `form:"sectionId" binding:"required,uuid"`
	CourseID  string `form:"courseId" binding:"required,uuid"`
	Order     int    `form:"order" binding:"required,min=1"`
}

type nextLessonRes struct {
	NextLessonID        uuid.UUID `json:"nextLessonId"`
	NextLessonSectionID uuid.UUID `json:"nextLessonSectionId"`
}

type previousLessonRes struct {
	PreviousLessonID        uuid.UUID `json:"previousLessonId"`
	PreviousLessonSectionID uuid.UUID `json:"previousLessonSectionId"`
}

// POST /api/lessons
func (h *LessonHandler) Create(c *gin.Context) error {
	var req lessonReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	lesson, err := h.lessons.Create(c.Request.Context(), usecase.LessonInput{
		SectionID:      uuid.MustParse(req.SectionID),
		Name:           req.Name,
		Description:    req.Description,
		YoutubeVideoID: req.YoutubeVideoID,
		Status:         req.Status,
	})
	if err != nil {
		return err
	}
	respond(c, http.StatusCreated, "Lesson created successfully!", lesson)
	return nil
}

// PUT /api/lessons/:id
func (h *LessonHandler) Update(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateLessonReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	lesson, err := h.lessons.Update(c.Request.Context(), id, usecase.LessonInput{
		Name:           req.Name,
		Description:    req.Description,
		YoutubeVideoID: req.YoutubeVideoID,
		Status:         req.Status,
	})
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Lesson updated successfully!", lesson)
	return nil
}

// DELETE /api/lessons/:id
func (h *LessonHandler) Delete(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.lessons.Delete(c.Request.Context(), id); err != nil {
		return err
	}
	respond(c, http.StatusOK, "Lesson deleted successfully!", nil)
	return nil
}

// PUT /api/lessons/order
func (h *LessonHandler) Reorder(c *gin.Context) error {
	var req reorderLessonsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	ids, err := parseIDs(req.LessonIDs)
	if err != nil {
		return err
	}
	if err := h.lessons.Reorder(c.Request.Context(), ids); err != nil {
		return err
	}
	respond(c, http.StatusOK, "Lessons reordered successfully!", nil)
	return nil
}

// GET /api/lessons/:id?courseId=
func (h *LessonHandler) Get(c *gin.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var courseID uuid.UUID
	if raw := c.Query("courseId"); raw != "" {
		if courseID, err = uuid.Parse(raw); err != nil {
			return invalidPayload(err)
		}
	}
	p, _ := middleware.CurrentUser(c)
	lesson, err := h.lessons.Get(c.Request.Context(), p, id, courseID)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Lesson fetched successfully!", lesson)
	return nil
}

// GET /api/lessons/completed
func (h *LessonHandler) Completed(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ids, err := h.lessons.Completed(c.Request.Context(), p.ID)
	if err != nil {
		return err
	}
	respondList(c, "Completed lessons fetched successfully!", ids, int64(len(ids)))
	return nil
}

// POST /api/lessons/completed
func (h *LessonHandler) MarkCompleted(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req completeLessonReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	mark, err := h.lessons.MarkCompleted(c.Request.Context(), p.ID, uuid.MustParse(req.LessonID))
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Lesson marked as completed!", mark)
	return nil
}

func bindPosition(c *gin.Context) (usecase.LessonPosition, error) {
	var q positionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return usecase.LessonPosition{}, invalidPayload(err)
	}
	return usecase.LessonPosition{
		LessonID:  uuid.MustParse(q.LessonID),
		SectionID: uuid.MustParse(q.SectionID),
		CourseID:  uuid.MustParse(q.CourseID),
		Order:     q.Order,
	}, nil
}

// GET /api/lessons/lesson/next
func (h *LessonHandler) Next(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	pos, err := bindPosition(c)
	if err != nil {
		return err
	}
	next, err := h.navigation.Next(c.Request.Context(), p, pos)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Next lesson fetched successfully!", nextLessonRes{
		NextLessonID:        next.LessonID,
		NextLessonSectionID: next.SectionID,
	})
	return nil
}

// GET /api/lessons/lesson/previous
func (h *LessonHandler) Previous(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	pos, err := bindPosition(c)
	if err != nil {
		return err
	}
	prev, err := h.navigation.Previous(c.Request.Context(), p, pos)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Previous lesson fetched successfully!", previousLessonRes{
		PreviousLessonID:        prev.LessonID,
		PreviousLessonSectionID: prev.SectionID,
	})
	return nil
}
