package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/config"
	"github.com/waste3d/courseplatform-api/internal/geo"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/cache"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/email"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/payment"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"
	"github.com/waste3d/courseplatform-api/internal/logger"
	"github.com/waste3d/courseplatform-api/internal/middleware"
	grpc_server "github.com/waste3d/courseplatform-api/internal/transport/grpc"
	handlers "github.com/waste3d/courseplatform-api/internal/transport/http"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on start")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, autoMigrate bool) error {
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			AttachStacktrace: true,
		}); err != nil {
			log.Warn("sentry disabled", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := repository.Open(cfg.DSN())
	if err != nil {
		return err
	}
	if autoMigrate {
		if err := repository.Migrate(db); err != nil {
			return err
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var (
		rdb      *redis.Client
		limiter  *middleware.RateLimiter
		throttle usecase.SendThrottle
		products usecase.ProductCache
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, rate limits and caches fail open", zap.Error(err))
		}
		limiter = middleware.NewRateLimiter(rdb, log)
		throttle = cache.NewOTPThrottle(rdb)
		products = cache.NewCatalogCache(rdb)
	} else {
		log.Info("REDIS_ADDR not set, running without rate limits and caches")
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}
	coupons, err := cfg.Coupons()
	if err != nil {
		return err
	}
	country, err := geo.NewCountryResolver(cfg.GeoIPDBPath)
	if err != nil {
		return fmt.Errorf("open GeoIP database: %w", err)
	}
	defer country.Close()

	users := repository.NewUserRepository(db)
	otps := repository.NewOTPRepository(db)
	courses := repository.NewCourseRepository(db)
	sections := repository.NewSectionRepository(db)
	lessons := repository.NewLessonRepository(db)
	access := repository.NewAccessRepository(db)
	productRepo := repository.NewProductRepository(db)
	purchases := repository.NewPurchaseRepository(db)
	stats := repository.NewStatsRepository(db)

	stripe := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)

	authUC := usecase.NewAuthUseCase(users, otps, security.NewPasswordHasher(), tokens, mailer, throttle, log)
	purchaseUC := usecase.NewPurchaseUseCase(purchases, productRepo, users, stripe, products, log)

	router := handlers.NewRouter(handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authUC),
		Profile:   handlers.NewProfileHandler(usecase.NewProfileUseCase(users, access, purchases)),
		Course:    handlers.NewCourseHandler(usecase.NewCourseUseCase(courses, lessons, access)),
		Section:   handlers.NewSectionHandler(usecase.NewSectionUseCase(sections)),
		Lesson:    handlers.NewLessonHandler(usecase.NewLessonUseCase(lessons, access), usecase.NewNavigationUseCase(lessons, sections, access)),
		Product:   handlers.NewProductHandler(usecase.NewProductUseCase(productRepo, purchases, products, log), usecase.NewCheckoutUseCase(productRepo, users, access, stripe, coupons, cfg.AppURL, log), country),
		Purchase:  handlers.NewPurchaseHandler(purchaseUC),
		Dashboard: handlers.NewDashboardHandler(usecase.NewDashboardUseCase(stats)),
		Webhook:   handlers.NewWebhookHandler(purchaseUC, stripe, cfg.AppURL, log),

		Authenticator: authUC,
		Limiter:       limiter,
		RatePerMinute: cfg.RateLimitPerMinute,
		Origins:       cfg.AllowedOrigins(),
		Health:        func() error { return sqlDB.PingContext(ctx) },
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	var health *grpc_server.HealthServer
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("listen gRPC: %w", err)
		}
		health = grpc_server.NewHealthServer(sqlDB.PingContext, log)
		go health.Watch(ctx, 10*time.Second)
		go func() {
			log.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
			if err := health.Server.Serve(lis); err != nil {
				errc <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		log.Error("server stopped", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if health != nil {
		health.Server.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

func newMailer(cfg config.Config) (usecase.Mailer, error) {
	switch cfg.MailProvider {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("config: SENDGRID_API_KEY is required for MAIL_PROVIDER=sendgrid")
		}
		return email.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName), nil
	case "smtp", "":
		return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, cfg.MailFromName), nil
	default:
		return nil, fmt.Errorf("config: unknown MAIL_PROVIDER %q", cfg.MailProvider)
	}
}
