package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
)

// LessonPosition identifies the lesson a learner is on.
type LessonPosition struct {
	LessonID  uuid.UUID
	SectionID uuid.UUID
	CourseID  uuid.UUID
	Order     int
}

type AdjacentLesson struct {
	LessonID  uuid.UUID
	SectionID uuid.UUID
}

type NavigationUseCase struct {
	lessons  *repository.LessonRepository
	sections *repository.SectionRepository
	access   *repository.AccessRepository
}

func NewNavigationUseCase(lessons *repository.LessonRepository, sections *repository.SectionRepository, access *repository.AccessRepository) *NavigationUseCase {
	return &NavigationUseCase{lessons: lessons, sections: sections, access: access}
}

func (uc *NavigationUseCase) Next(ctx context.Context, caller *domain.Principal, pos LessonPosition) (*AdjacentLesson, error) {
	return uc.adjacent(ctx, caller, pos, true)
}

func (uc *NavigationUseCase) Previous(ctx context.Context, caller *domain.Principal, pos LessonPosition) (*AdjacentLesson, error) {
	return uc.adjacent(ctx, caller, pos, false)
}

// adjacent walks public or preview lessons. Inside the current section it moves by lesson
// order; past the section edge it moves to the nearest public section and takes its first
// (forward) or last lesson.
func (uc *NavigationUseCase) adjacent(ctx context.Context, caller *domain.Principal, pos LessonPosition, forward bool) (*AdjacentLesson, error) {
	if !caller.IsAdmin() {
		ok, err := uc.access.Has(ctx, caller.ID, pos.CourseID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrAccessDenied
		}
	}

	lesson, err := uc.lessons.FindPositioned(ctx, pos.LessonID, pos.SectionID, pos.Order)
	if err != nil {
		return nil, err
	}
	section, err := uc.sections.GetByID(ctx, lesson.SectionID)
	if err != nil {
		return nil, err
	}
	if section.CourseID != pos.CourseID {
		return nil, domain.ErrLessonNotFound
	}

	next, err := uc.lessons.AdjacentVisible(ctx, section.ID, lesson.Order, forward)
	if err == nil {
		return &AdjacentLesson{LessonID: next.ID, SectionID: next.SectionID}, nil
	}
	if !errors.Is(err, domain.ErrLessonNotFound) {
		return nil, err
	}

	sectionMissing, lessonMissing := domain.ErrNextSectionNotFound, domain.ErrNextLessonNotFound
	if !forward {
		sectionMissing, lessonMissing = domain.ErrPreviousSectionNotFound, domain.ErrPreviousLessonNotFound
	}

	neighbour, err := uc.sections.AdjacentPublic(ctx, section.CourseID, section.Order, forward)
	if err != nil {
		if errors.Is(err, domain.ErrSectionNotFound) {
			return nil, sectionMissing
		}
		return nil, err
	}
	edge, err := uc.lessons.EdgeVisible(ctx, neighbour.ID, forward)
	if err != nil {
		if errors.Is(err, domain.ErrLessonNotFound) {
			return nil, lessonMissing
		}
		return nil, err
	}
	return &AdjacentLesson{LessonID: edge.ID, SectionID: edge.SectionID}, nil
}
