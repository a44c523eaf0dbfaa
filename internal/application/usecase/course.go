package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
)

type CourseUseCase struct {
	courses *repository.CourseRepository
	lessons *repository.LessonRepository
	access  *repository.AccessRepository
}

func NewCourseUseCase(courses *repository.CourseRepository, lessons *repository.LessonRepository, access *repository.AccessRepository) *CourseUseCase {
	return &CourseUseCase{courses: courses, lessons: lessons, access: access}
}

func (uc *CourseUseCase) Create(ctx context.Context, name, description string) (*domain.Course, error) {
	course := &domain.Course{Name: name, Description: description}
	if err := uc.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (uc *CourseUseCase) List(ctx context.Context) ([]domain.Course, int64, error) {
	return uc.courses.List(ctx)
}

func (uc *CourseUseCase) Update(ctx context.Context, id uuid.UUID, name, description string) (*domain.Course, error) {
	return uc.courses.Update(ctx, id, name, description)
}

func (uc *CourseUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.courses.Delete(ctx, id)
}

// Get returns the full tree to admins. Learners need access and see only public sections and
// non-private lessons, each flagged with their completion.
func (uc *CourseUseCase) Get(ctx context.Context, caller *domain.Principal, id uuid.UUID) (*domain.Course, error) {
	if caller.IsAdmin() {
		return uc.courses.GetTree(ctx, id, false)
	}

	ok, err := uc.access.Has(ctx, caller.ID, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccessDenied
	}

	course, err := uc.courses.GetTree(ctx, id, true)
	if err != nil {
		return nil, err
	}
	done, err := uc.completedSet(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	for i := range course.Sections {
		lessons := course.Sections[i].Lessons
		for j := range lessons {
			_, lessons[j].IsCompleted = done[lessons[j].ID]
		}
	}
	return course, nil
}

func (uc *CourseUseCase) MyCourses(ctx context.Context, userID uuid.UUID) ([]domain.CourseSummary, error) {
	return uc.courses.Summaries(ctx, userID)
}

func (uc *CourseUseCase) completedSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	ids, err := uc.lessons.CompletedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
