package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"
	"github.com/waste3d/courseplatform-api/internal/middleware"
	"go.uber.org/zap"
)

type meta struct {
	Total int64 `json:"total"`
}

type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Meta    *meta  `json:"meta,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Status: status, Message: message, Success: status < http.StatusBadRequest, Data: data})
}

func respondList(c *gin.Context, message string, data any, total int64) {
	c.JSON(http.StatusOK, envelope{
		Status:  http.StatusOK,
		Message: message,
		Success: true,
		Meta:    &meta{Total: total},
		Data:    data,
	})
}

// apiError carries a status and message chosen by the handler itself.
type apiError struct {
	status  int
	message string
	err     error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.err }

func invalidPayload(err error) error {
	return &apiError{status: http.StatusBadRequest, message: "Invalid payload!", err: err}
}

var errUnauthenticated = &apiError{status: http.StatusUnauthorized, message: "Unauthorized access!"}

type mapped struct {
	status  int
	message string
}

var errorTable = []struct {
	err error
	mapped
}{
	{domain.ErrUserNotFound, mapped{http.StatusNotFound, "User not found!"}},
	{domain.ErrUserAlreadyExists, mapped{http.StatusBadRequest, "User already exists!"}},
	{domain.ErrEmailNotVerified, mapped{http.StatusUnauthorized, "Please verify your email first!"}},
	{domain.ErrInvalidCredentials, mapped{http.StatusUnauthorized, "Incorrect Credential!"}},
	{domain.ErrOldPasswordInvalid, mapped{http.StatusBadRequest, "Old password is incorrect!"}},
	{domain.ErrPasswordUnchanged, mapped{http.StatusBadRequest, "New password must differ from the old password!"}},
	{domain.ErrOTPNotFound, mapped{http.StatusNotFound, "OTP not found!"}},
	{domain.ErrOTPExpired, mapped{http.StatusBadRequest, "OTP is expired! Please request a new OTP."}},
	{domain.ErrOTPMismatch, mapped{http.StatusUnauthorized, "Incorrect OTP!"}},
	{domain.ErrOTPThrottled, mapped{http.StatusTooManyRequests, "Please wait a minute before requesting another OTP!"}},
	{domain.ErrMailDelivery, mapped{http.StatusInternalServerError, "Failed to send OTP!"}},
	{domain.ErrAccessDenied, mapped{http.StatusUnauthorized, "Unauthorized access!"}},
	{security.ErrInvalidToken, mapped{http.StatusUnauthorized, "Invalid or expired token!"}},
	{domain.ErrCourseNotFound, mapped{http.StatusNotFound, "Course not found!"}},
	{domain.ErrCourseHasSections, mapped{http.StatusBadRequest, "Delete the course sections first!"}},
	{domain.ErrUnknownCourses, mapped{http.StatusBadRequest, "One or more courses do not exist!"}},
	{domain.ErrSectionNotFound, mapped{http.StatusNotFound, "Section not found!"}},
	{domain.ErrSectionHasLessons, mapped{http.StatusBadRequest, "Delete the section lessons first!"}},
	{domain.ErrLessonNotFound, mapped{http.StatusNotFound, "Lesson not found!"}},
	{domain.ErrLessonPrivate, mapped{http.StatusBadRequest, "This lesson is private!"}},
	{domain.ErrNextSectionNotFound, mapped{http.StatusNotFound, "Next section not found!"}},
	{domain.ErrNextLessonNotFound, mapped{http.StatusNotFound, "Next lesson not found!"}},
	{domain.ErrPreviousSectionNotFound, mapped{http.StatusNotFound, "Previous section not found!"}},
	{domain.ErrPreviousLessonNotFound, mapped{http.StatusNotFound, "Previous lesson not found!"}},
	{domain.ErrProductNotFound, mapped{http.StatusNotFound, "Product not found!"}},
	{domain.ErrProductHasPurchases, mapped{http.StatusBadRequest, "Product has purchases and can't be deleted!"}},
	{domain.ErrProductAlreadyOwned, mapped{http.StatusBadRequest, "You already have access to this product!"}},
	{domain.ErrPurchaseNotFound, mapped{http.StatusNotFound, "Purchase not found!"}},
	{domain.ErrRefundWindowExpired, mapped{http.StatusBadRequest, "Can't refund after 30 days of purchase!"}},
	{domain.ErrPaymentIntentMissing, mapped{http.StatusBadRequest, "Payment intent not found!"}},
	{domain.ErrMissingMetadata, mapped{http.StatusBadRequest, "Missing checkout metadata!"}},
	{domain.ErrNothingToGrant, mapped{http.StatusBadRequest, "You already have access to all courses!"}},
	{domain.ErrPurchaseAlreadyRecorded, mapped{http.StatusBadRequest, "Purchase already recorded!"}},
	{domain.ErrMissingClientSecret, mapped{http.StatusInternalServerError, "Client secret not found!"}},
	{domain.ErrInvalidWebhook, mapped{http.StatusBadRequest, "Invalid webhook signature!"}},
}

func classify(err error) mapped {
	var api *apiError
	if errors.As(err, &api) {
		return mapped{api.status, api.message}
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.mapped
		}
	}
	return mapped{http.StatusInternalServerError, "Internal Server Error!"}
}

// Wrap adapts an error-returning handler to gin. Errors become the failure envelope; 500s are
// logged and reported to Sentry.
func Wrap(log *zap.Logger) func(fn func(*gin.Context) error) gin.HandlerFunc {
	return func(fn func(*gin.Context) error) gin.HandlerFunc {
		return func(c *gin.Context) {
			err := fn(c)
			if err == nil {
				return
			}
			m := classify(err)
			if m.status >= http.StatusInternalServerError {
				log.Error("request failed",
					zap.String("method", c.Request.Method),
					zap.String("path", c.FullPath()),
					zap.Error(err),
				)
				middleware.RecordError(c, err)
			}
			_ = c.Error(err)
			respond(c, m.status, m.message, nil)
		}
	}
}

func caller(c *gin.Context) (*domain.Principal, error) {
	p, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, errUnauthenticated
	}
	return p, nil
}

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, invalidPayload(err)
	}
	return id, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, invalidPayload(err)
		}
		ids[i] = id
	}
	return ids, nil
}
