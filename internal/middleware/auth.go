package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Authenticator turns a bearer token into the caller it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

var errNoToken = errors.New("missing bearer token")

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  status,
		"message": message,
		"success": false,
	})
}

func bearer(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errNoToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// Auth rejects requests without a valid bearer token.
func Auth(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearer(c)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Unauthorized access!")
			return
		}
		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Debug("reject token", zap.Error(err))
			abort(c, http.StatusUnauthorized, "Invalid or expired token!")
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and otherwise lets the
// request through anonymously.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearer(c); err == nil {
			if p, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentUser(c)
		if !ok || !p.IsAdmin() {
			abort(c, http.StatusUnauthorized, "Unauthorized access!")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*domain.Principal)
	return p, ok && p != nil
}
