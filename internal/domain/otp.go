package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OTPType string

const (
	OTPEmailVerification OTPType = "email_verification"
	OTPForgotPassword    OTPType = "forgot_password"
)

func (t OTPType) Valid() bool {
	return t == OTPEmailVerification || t == OTPForgotPassword
}

const (
	OTPLength = 6
	OTPTTL    = 10 * time.Minute
)

// OTPVerification holds the bcrypt hash of the latest code per user and purpose.
type OTPVerification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_otp_user_type"`
	OTPType   OTPType   `gorm:"type:varchar(32);not null;uniqueIndex:idx_otp_user_type"`
	OTP       string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *OTPVerification) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *OTPVerification) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

func (OTPVerification) TableName() string { return "otp_verifications" }
