package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
)

type LessonUseCase struct {
	lessons *repository.LessonRepository
	access  *repository.AccessRepository
}

func NewLessonUseCase(lessons *repository.LessonRepository, access *repository.AccessRepository) *LessonUseCase {
	return &LessonUseCase{lessons: lessons, access: access}
}

type LessonInput struct {
	SectionID      uuid.UUID
	Name           string
	Description    string
	YoutubeVideoID string
	Status         domain.LessonStatus
}

func (uc *LessonUseCase) Create(ctx context.Context, in LessonInput) (*domain.CourseLesson, error) {
	lesson := &domain.CourseLesson{
		SectionID:      in.SectionID,
		Name:           in.Name,
		Description:    in.Description,
		YoutubeVideoID: in.YoutubeVideoID,
		Status:         in.Status,
	}
	if err := uc.lessons.CreateAppend(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Update leaves the section and order untouched.
func (uc *LessonUseCase) Update(ctx context.Context, id uuid.UUID, in LessonInput) (*domain.CourseLesson, error) {
	return uc.lessons.Update(ctx, id, map[string]any{
		"name":             in.Name,
		"description":      in.Description,
		"youtube_video_id": in.YoutubeVideoID,
		"status":           in.Status,
	})
}

func (uc *LessonUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.lessons.Delete(ctx, id)
}

func (uc *LessonUseCase) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return uc.lessons.Reorder(ctx, ids)
}

// Get serves preview lessons to anyone, including anonymous callers. Other lessons need an
// admin, or a learner holding courseID with the lesson inside it. Private lessons are never
// served to learners.
func (uc *LessonUseCase) Get(ctx context.Context, caller *domain.Principal, lessonID, courseID uuid.UUID) (*domain.CourseLesson, error) {
	lesson, err := uc.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	if lesson.Status != domain.LessonPreview {
		if caller == nil {
			return nil, domain.ErrAccessDenied
		}
		if !caller.IsAdmin() {
			if lesson.Status == domain.LessonPrivate {
				return nil, domain.ErrLessonPrivate
			}
			if err := uc.checkLearner(ctx, caller.ID, lessonID, courseID); err != nil {
				return nil, err
			}
		}
	}

	if caller != nil {
		ids, err := uc.lessons.CompletedIDs(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if id == lesson.ID {
				lesson.IsCompleted = true
				break
			}
		}
	}
	return lesson, nil
}

func (uc *LessonUseCase) checkLearner(ctx context.Context, userID, lessonID, courseID uuid.UUID) error {
	ok, err := uc.access.Has(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied
	}
	inCourse, err := uc.lessons.BelongsToCourse(ctx, lessonID, courseID)
	if err != nil {
		return err
	}
	if !inCourse {
		return domain.ErrLessonNotFound
	}
	return nil
}

func (uc *LessonUseCase) Completed(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return uc.lessons.CompletedIDs(ctx, userID)
}

func (uc *LessonUseCase) MarkCompleted(ctx context.Context, userID, lessonID uuid.UUID) (*domain.UserLessonComplete, error) {
	return uc.lessons.MarkCompleted(ctx, userID, lessonID)
}
