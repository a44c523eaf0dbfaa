package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOldPasswordInvalid = errors.New("old password does not match")
	ErrPasswordUnchanged  = errors.New("new password equals old password")

	ErrOTPNotFound  = errors.New("otp not found")
	ErrOTPExpired   = errors.New("otp expired")
	ErrOTPMismatch  = errors.New("otp mismatch")
	ErrOTPThrottled = errors.New("otp requested too recently")
	ErrMailDelivery = errors.New("mail delivery failed")

	ErrAccessDenied = errors.New("access denied")

	ErrCourseNotFound    = errors.New("course not found")
	ErrCourseHasSections = errors.New("course still has sections")
	ErrUnknownCourses    = errors.New("one or more courses do not exist")

	ErrSectionNotFound   = errors.New("section not found")
	ErrSectionHasLessons = errors.New("section still has lessons")

	ErrLessonNotFound          = errors.New("lesson not found")
	ErrLessonPrivate           = errors.New("lesson is private")
	ErrNextSectionNotFound     = errors.New("next section not found")
	ErrNextLessonNotFound      = errors.New("next lesson not found")
	ErrPreviousSectionNotFound = errors.New("previous section not found")
	ErrPreviousLessonNotFound  = errors.New("previous lesson not found")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductHasPurchases = errors.New("product has purchases")
	ErrProductAlreadyOwned = errors.New("user already owns every course of the product")

	ErrPurchaseNotFound        = errors.New("purchase not found")
	ErrRefundWindowExpired     = errors.New("refund window expired")
	ErrPaymentIntentMissing    = errors.New("payment intent not found")
	ErrMissingMetadata         = errors.New("checkout session metadata is incomplete")
	ErrNothingToGrant          = errors.New("user already has access to all courses")
	ErrPurchaseAlreadyRecorded = errors.New("purchase already recorded for session")
	ErrMissingClientSecret     = errors.New("checkout session has no client secret")
	ErrInvalidWebhook          = errors.New("invalid webhook payload or signature")
)
