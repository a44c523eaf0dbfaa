package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
)

type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) Has(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.UserCourseAccess{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error
	return n > 0, err
}

// HeldAmong returns the subset of courseIDs the user already has access to.
func (r *AccessRepository) HeldAmong(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]uuid.UUID, error) {
	return heldAmong(r.db.WithContext(ctx), userID, courseIDs)
}

func heldAmong(db *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) ([]uuid.UUID, error) {
	held := []uuid.UUID{}
	if len(courseIDs) == 0 {
		return held, nil
	}
	err := db.Model(&domain.UserCourseAccess{}).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Pluck("course_id", &held).Error
	return held, err
}

func (r *AccessRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserCourseAccess, error) {
	var accesses []domain.UserCourseAccess
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&accesses).Error
	return accesses, err
}
