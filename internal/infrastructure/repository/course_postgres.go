package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
)

const orderAsc = `"order" asc`
const orderDesc = `"order" desc`

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CourseRepository) List(ctx context.Context) ([]domain.Course, int64, error) {
	var courses []domain.Course
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Course{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// GetTree loads a course with its sections and lessons in order. With learnerView only public
// sections and non-private lessons are included.
func (r *CourseRepository) GetTree(ctx context.Context, id uuid.UUID, learnerView bool) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			if learnerView {
				db = db.Where("status = ?", domain.SectionPublic)
			}
			return db.Order(orderAsc)
		}).
		Preload("Sections.Lessons", func(db *gorm.DB) *gorm.DB {
			if learnerView {
				db = db.Where("status <> ?", domain.LessonPrivate)
			}
			return db.Order(orderAsc)
		}).
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Update(ctx context.Context, id uuid.UUID, name, description string) (*domain.Course, error) {
	result := r.db.WithContext(ctx).Model(&domain.Course{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "description": description})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrCourseNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete refuses to remove a course that still has sections.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sections int64
		if err := tx.Model(&domain.CourseSection{}).Where("course_id = ?", id).Count(&sections).Error; err != nil {
			return err
		}
		if sections > 0 {
			return domain.ErrCourseHasSections
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.CourseProduct{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Course{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrCourseNotFound
		}
		return nil
	})
}

// Summaries returns the courses the user holds access to, with learner-visible counts.
func (r *CourseRepository) Summaries(ctx context.Context, userID uuid.UUID) ([]domain.CourseSummary, error) {
	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Joins("JOIN user_course_accesses uca ON uca.course_id = courses.id").
		Where("uca.user_id = ?", userID).
		Order("courses.name asc").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.CourseSummary, 0, len(courses))
	for _, course := range courses {
		summary := domain.CourseSummary{Course: course}

		if err := r.db.WithContext(ctx).Model(&domain.CourseSection{}).
			Where("course_id = ? AND status = ?", course.ID, domain.SectionPublic).
			Count(&summary.SectionsCount).Error; err != nil {
			return nil, err
		}

		if err := r.visibleLessons(ctx, course.ID).Count(&summary.LessonsCount).Error; err != nil {
			return nil, err
		}

		if err := r.visibleLessons(ctx, course.ID).
			Joins("JOIN user_lesson_completes ulc ON ulc.lesson_id = course_lessons.id").
			Where("ulc.user_id = ?", userID).
			Count(&summary.LessonsComplete).Error; err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *CourseRepository) visibleLessons(ctx context.Context, courseID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.CourseLesson{}).
		Joins("JOIN course_sections cs ON cs.id = course_lessons.section_id").
		Where("cs.course_id = ? AND cs.status = ?", courseID, domain.SectionPublic).
		Where("course_lessons.status <> ?", domain.LessonPrivate)
}
