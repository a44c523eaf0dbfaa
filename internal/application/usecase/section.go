package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
)

type SectionUseCase struct {
	sections *repository.SectionRepository
}

func NewSectionUseCase(sections *repository.SectionRepository) *SectionUseCase {
	return &SectionUseCase{sections: sections}
}

func (uc *SectionUseCase) Create(ctx context.Context, courseID uuid.UUID, name string, status domain.SectionStatus) (*domain.CourseSection, error) {
	section := &domain.CourseSection{CourseID: courseID, Name: name, Status: status}
	if err := uc.sections.CreateAppend(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

func (uc *SectionUseCase) Update(ctx context.Context, id uuid.UUID, name string, status domain.SectionStatus) (*domain.CourseSection, error) {
	return uc.sections.Update(ctx, id, name, status)
}

func (uc *SectionUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return uc.sections.Delete(ctx, id)
}

func (uc *SectionUseCase) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return uc.sections.Reorder(ctx, ids)
}
