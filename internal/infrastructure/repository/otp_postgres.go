package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Save replaces any pending code for the same user and purpose.
func (r *OTPRepository) Save(ctx context.Context, otp *domain.OTPVerification) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "otp_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"otp", "expires_at", "updated_at"}),
	}).Create(otp).Error
}

func (r *OTPRepository) Find(ctx context.Context, userID uuid.UUID, otpType domain.OTPType) (*domain.OTPVerification, error) {
	var otp domain.OTPVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND otp_type = ?", userID, otpType).
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, err
	}
	return &otp, nil
}

func (r *OTPRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.OTPVerification{}, "id = ?", id).Error
}
