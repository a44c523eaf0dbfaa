package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LessonRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// CreateAppend compacts the section's lesson orders to 1..n and appends l at n+1.
func (r *LessonRepository) CreateAppend(ctx context.Context, l *domain.CourseLesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sections int64
		if err := tx.Model(&domain.CourseSection{}).Where("id = ?", l.SectionID).Count(&sections).Error; err != nil {
			return err
		}
		if sections == 0 {
			return domain.ErrSectionNotFound
		}

		var siblings []domain.CourseLesson
		if err := tx.Where("section_id = ?", l.SectionID).Order(orderAsc).Find(&siblings).Error; err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(siblings))
		orders := make([]int, len(siblings))
		for i, s := range siblings {
			ids[i], orders[i] = s.ID, s.Order
		}
		if err := renumber(tx, &domain.CourseLesson{}, ids, orders); err != nil {
			return err
		}

		l.Order = len(siblings) + 1
		return tx.Create(l).Error
	})
}

func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CourseLesson, error) {
	var lesson domain.CourseLesson
	if err := r.db.WithContext(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

// FindPositioned matches a lesson by id, section and order all at once.
func (r *LessonRepository) FindPositioned(ctx context.Context, id, sectionID uuid.UUID, order int) (*domain.CourseLesson, error) {
	var lesson domain.CourseLesson
	err := r.db.WithContext(ctx).
		Where(`id = ? AND section_id = ? AND "order" = ?`, id, sectionID, order).
		First(&lesson).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*domain.CourseLesson, error) {
	result := r.db.WithContext(ctx).Model(&domain.CourseLesson{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrLessonNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&domain.UserLessonComplete{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.CourseLesson{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrLessonNotFound
		}
		return nil
	})
}

func (r *LessonRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			result := tx.Model(&domain.CourseLesson{}).Where("id = ?", id).Update("order", i+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrLessonNotFound
			}
		}
		return nil
	})
}

// AdjacentVisible returns the nearest public or preview lesson of the section after (forward)
// or before the given order.
func (r *LessonRepository) AdjacentVisible(ctx context.Context, sectionID uuid.UUID, order int, forward bool) (*domain.CourseLesson, error) {
	query := r.visibleIn(ctx, sectionID)
	if forward {
		query = query.Where(`"order" > ?`, order).Order(orderAsc)
	} else {
		query = query.Where(`"order" < ?`, order).Order(orderDesc)
	}
	return firstLesson(query)
}

// EdgeVisible returns the first (or last) public or preview lesson of the section.
func (r *LessonRepository) EdgeVisible(ctx context.Context, sectionID uuid.UUID, first bool) (*domain.CourseLesson, error) {
	query := r.visibleIn(ctx, sectionID)
	if first {
		query = query.Order(orderAsc)
	} else {
		query = query.Order(orderDesc)
	}
	return firstLesson(query)
}

func (r *LessonRepository) visibleIn(ctx context.Context, sectionID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("section_id = ? AND status IN ?", sectionID, domain.VisibleLessonStatuses)
}

func firstLesson(query *gorm.DB) (*domain.CourseLesson, error) {
	var lesson domain.CourseLesson
	if err := query.First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) BelongsToCourse(ctx context.Context, lessonID, courseID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.CourseLesson{}).
		Joins("JOIN course_sections cs ON cs.id = course_lessons.section_id").
		Where("course_lessons.id = ? AND cs.course_id = ?", lessonID, courseID).
		Count(&n).Error
	return n > 0, err
}

func (r *LessonRepository) CompletedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&domain.UserLessonComplete{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("lesson_id", &ids).Error
	return ids, err
}

// MarkCompleted is idempotent.
func (r *LessonRepository) MarkCompleted(ctx context.Context, userID, lessonID uuid.UUID) (*domain.UserLessonComplete, error) {
	var lessons int64
	if err := r.db.WithContext(ctx).Model(&domain.CourseLesson{}).Where("id = ?", lessonID).Count(&lessons).Error; err != nil {
		return nil, err
	}
	if lessons == 0 {
		return nil, domain.ErrLessonNotFound
	}

	mark := &domain.UserLessonComplete{UserID: userID, LessonID: lessonID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(mark).Error
	return mark, err
}
