package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth map[string]*domain.Principal

func (s stubAuth) Authenticate(_ context.Context, token string) (*domain.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, errors.New("bad token")
}

var (
	learner = &domain.Principal{ID: uuid.New(), Email: "learner@example.com", Role: domain.RoleUser}
	admin   = &domain.Principal{ID: uuid.New(), Email: "admin@example.com", Role: domain.RoleSuperAdmin}
	tokens  = stubAuth{"learner-token": learner, "admin-token": admin}
)

func whoami(c *gin.Context) {
	p, ok := CurrentUser(c)
	if !ok {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, p.Email)
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/", Auth(tokens, zap.NewNop()), whoami)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Unauthorized access!"},
		{"wrong scheme", "Basic learner-token", http.StatusUnauthorized, "Unauthorized access!"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Unauthorized access!"},
		{"unknown token", "Bearer forged", http.StatusUnauthorized, "Invalid or expired token!"},
		{"valid token", "Bearer learner-token", http.StatusOK, learner.Email},
		{"lowercase scheme", "bearer learner-token", http.StatusOK, learner.Email},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(r, tc.header)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(tokens), whoami)

	assert.Equal(t, "anonymous", serve(r, "").Body.String())
	assert.Equal(t, "anonymous", serve(r, "Bearer forged").Body.String())
	assert.Equal(t, admin.Email, serve(r, "Bearer admin-token").Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/", Auth(tokens, zap.NewNop()), RequireAdmin(), whoami)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer learner-token").Code)
	w := serve(r, "Bearer admin-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, admin.Email, w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	limiter := NewRateLimiter(client, zap.NewNop())
	r := gin.New()
	r.GET("/", limiter.Limit("test", 3, time.Minute), whoami)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, serve(r, "").Code, "request %d", i+1)
	}
	w := serve(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, serve(r, "").Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRateLimiter(client, zap.NewNop())
	r := gin.New()
	r.GET("/", limiter.Limit("test", 1, time.Minute), whoami)

	assert.Equal(t, http.StatusOK, serve(r, "").Code)
	assert.Equal(t, http.StatusOK, serve(r, "").Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/", whoami)
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, "")
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusInternalServerError, entries[1].ContextMap()["status"])
}
