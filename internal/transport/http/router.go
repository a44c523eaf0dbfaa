package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/waste3d/courseplatform-api/internal/middleware"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts. Limiter may be nil, which disables rate limits.
type Handlers struct {
	Auth      *AuthHandler
	Profile   *ProfileHandler
	Course    *CourseHandler
	Section   *SectionHandler
	Lesson    *LessonHandler
	Product   *ProductHandler
	Purchase  *PurchaseHandler
	Dashboard *DashboardHandler
	Webhook   *WebhookHandler

	Authenticator middleware.Authenticator
	Limiter       *middleware.RateLimiter
	RatePerMinute int
	Origins       []string
	Health        func() error
	Log           *zap.Logger
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Telemetry(), gin.Recovery(), middleware.RequestLogger(h.Log))

	config := cors.DefaultConfig()
	if len(h.Origins) > 0 {
		config.AllowOrigins = h.Origins
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowCredentials = len(h.Origins) > 0
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-User-Country"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		if h.Health != nil {
			if err := h.Health(); err != nil {
				respond(c, http.StatusServiceUnavailable, "Database unavailable!", nil)
				return
			}
		}
		respond(c, http.StatusOK, "OK", nil)
	})

	wrap := Wrap(h.Log)
	limit := func(key string, n int, window time.Duration) gin.HandlerFunc {
		if h.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return h.Limiter.Limit(key, n, window)
	}
	authed := middleware.Auth(h.Authenticator, h.Log)
	optional := middleware.OptionalAuth(h.Authenticator)
	admin := middleware.RequireAdmin()

	webhooks := r.Group("/api/webhooks")
	{
		webhooks.GET("/stripe", h.Webhook.Redirect)
		webhooks.POST("/stripe", h.Webhook.Stripe)
	}

	api := r.Group("/api")
	if h.RatePerMinute > 0 {
		api.Use(limit("api", h.RatePerMinute, time.Minute))
	}
	{
		auth := api.Group("/auth")
		{
			auth.POST("/user-register", wrap(h.Auth.Register))
			auth.POST("/sign-up/user", wrap(h.Auth.SignUp))
			auth.POST("/sign-in", limit("sign_in", 10, time.Minute), wrap(h.Auth.SignIn))
			auth.POST("/send-otp", limit("send_otp", 5, 5*time.Minute), wrap(h.Auth.SendOTP))
			auth.POST("/verify-otp", limit("verify_otp", 10, 5*time.Minute), wrap(h.Auth.VerifyOTP))
			auth.POST("/reset-password", authed, wrap(h.Auth.ResetPassword))
			auth.GET("/verify-token", authed, wrap(h.Auth.VerifyToken))
		}

		profile := api.Group("/profile", authed)
		{
			profile.GET("", wrap(h.Profile.Get))
			profile.PUT("", wrap(h.Profile.Update))
		}

		courses := api.Group("/courses")
		{
			courses.GET("", wrap(h.Course.List))
			courses.GET("/my-courses", authed, wrap(h.Course.MyCourses))
			courses.GET("/:id", authed, wrap(h.Course.Get))
			courses.POST("", authed, admin, wrap(h.Course.Create))
			courses.PUT("/:id", authed, admin, wrap(h.Course.Update))
			courses.DELETE("/:id", authed, admin, wrap(h.Course.Delete))
		}

		sections := api.Group("/sections", authed, admin)
		{
			sections.POST("", wrap(h.Section.Create))
			sections.PUT("/order", wrap(h.Section.Reorder))
			sections.PUT("/:id", wrap(h.Section.Update))
			sections.DELETE("/:id", wrap(h.Section.Delete))
		}

		lessons := api.Group("/lessons")
		{
			lessons.GET("/completed", authed, wrap(h.Lesson.Completed))
			lessons.POST("/completed", authed, wrap(h.Lesson.MarkCompleted))
			lessons.GET("/lesson/next", authed, wrap(h.Lesson.Next))
			lessons.GET("/lesson/previous", authed, wrap(h.Lesson.Previous))
			lessons.GET("/:id", optional, wrap(h.Lesson.Get))
			lessons.POST("", authed, admin, wrap(h.Lesson.Create))
			lessons.PUT("/order", authed, admin, wrap(h.Lesson.Reorder))
			lessons.PUT("/:id", authed, admin, wrap(h.Lesson.Update))
			lessons.DELETE("/:id", authed, admin, wrap(h.Lesson.Delete))
		}

		products := api.Group("/products")
		{
			products.GET("", optional, wrap(h.Product.List))
			products.GET("/:id", optional, wrap(h.Product.Get))
			products.GET("/:id/coupon", wrap(h.Product.Coupon))
			products.GET("/:id/user-access", authed, wrap(h.Product.UserAccess))
			products.POST("/:id/checkout", authed, limit("checkout", 10, time.Minute), wrap(h.Product.Checkout))
			products.POST("", authed, admin, wrap(h.Product.Create))
			products.PUT("/:id", authed, admin, wrap(h.Product.Update))
			products.DELETE("/:id", authed, admin, wrap(h.Product.Delete))
		}

		purchases := api.Group("/purchases", authed)
		{
			purchases.GET("", wrap(h.Purchase.List))
			purchases.GET("/:id", wrap(h.Purchase.Get))
			purchases.PUT("/:id", admin, wrap(h.Purchase.Refund))
		}

		api.GET("/dashboard/admin", authed, admin, wrap(h.Dashboard.Admin))
	}

	return r
}
