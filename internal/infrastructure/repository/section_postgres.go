package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
)

type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// CreateAppend compacts the course's section orders to 1..n and appends s at n+1.
func (r *SectionRepository) CreateAppend(ctx context.Context, s *domain.CourseSection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var courses int64
		if err := tx.Model(&domain.Course{}).Where("id = ?", s.CourseID).Count(&courses).Error; err != nil {
			return err
		}
		if courses == 0 {
			return domain.ErrCourseNotFound
		}

		var siblings []domain.CourseSection
		if err := tx.Where("course_id = ?", s.CourseID).Order(orderAsc).Find(&siblings).Error; err != nil {
			return err
		}
		if err := renumber(tx, &domain.CourseSection{}, sectionIDs(siblings), sectionOrders(siblings)); err != nil {
			return err
		}

		s.Order = len(siblings) + 1
		return tx.Create(s).Error
	})
}

func (r *SectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CourseSection, error) {
	var section domain.CourseSection
	if err := r.db.WithContext(ctx).First(&section, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSectionNotFound
		}
		return nil, err
	}
	return &section, nil
}

func (r *SectionRepository) Update(ctx context.Context, id uuid.UUID, name string, status domain.SectionStatus) (*domain.CourseSection, error) {
	result := r.db.WithContext(ctx).Model(&domain.CourseSection{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "status": status})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrSectionNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete refuses to remove a section that still has lessons.
func (r *SectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lessons int64
		if err := tx.Model(&domain.CourseLesson{}).Where("section_id = ?", id).Count(&lessons).Error; err != nil {
			return err
		}
		if lessons > 0 {
			return domain.ErrSectionHasLessons
		}
		result := tx.Delete(&domain.CourseSection{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrSectionNotFound
		}
		return nil
	})
}

// Reorder assigns order = position+1 to each id.
func (r *SectionRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			result := tx.Model(&domain.CourseSection{}).Where("id = ?", id).Update("order", i+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrSectionNotFound
			}
		}
		return nil
	})
}

// AdjacentPublic returns the nearest public section of the course after (forward) or before
// the given order.
func (r *SectionRepository) AdjacentPublic(ctx context.Context, courseID uuid.UUID, order int, forward bool) (*domain.CourseSection, error) {
	query := r.db.WithContext(ctx).
		Where("course_id = ? AND status = ?", courseID, domain.SectionPublic)
	if forward {
		query = query.Where(`"order" > ?`, order).Order(orderAsc)
	} else {
		query = query.Where(`"order" < ?`, order).Order(orderDesc)
	}

	var section domain.CourseSection
	if err := query.First(&section).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSectionNotFound
		}
		return nil, err
	}
	return &section, nil
}

func sectionIDs(sections []domain.CourseSection) []uuid.UUID {
	ids := make([]uuid.UUID, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return ids
}

func sectionOrders(sections []domain.CourseSection) []int {
	orders := make([]int, len(sections))
	for i, s := range sections {
		orders[i] = s.Order
	}
	return orders
}

// renumber rewrites orders to 1..n, touching only rows whose order changes.
func renumber(tx *gorm.DB, model any, ids []uuid.UUID, orders []int) error {
	for i, id := range ids {
		if orders[i] == i+1 {
			continue
		}
		if err := tx.Model(model).Where("id = ?", id).Update("order", i+1).Error; err != nil {
			return err
		}
	}
	return nil
}
