package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/waste3d/courseplatform-api/internal/domain"
)

type Config struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`
	AppURL   string `mapstructure:"APP_URL"`
	GinMode  string `mapstructure:"GIN_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn time.Duration `mapstructure:"JWT_EXPIRES_IN"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	MailProvider   string `mapstructure:"MAIL_PROVIDER"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	MailFromName   string `mapstructure:"MAIL_FROM_NAME"`
	SMTPHost       string `mapstructure:"SMTP_HOST"`
	SMTPPort       int    `mapstructure:"SMTP_PORT"`
	SMTPUsername   string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD"`
	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`

	SentryDSN         string `mapstructure:"SENTRY_DSN"`
	SentryEnvironment string `mapstructure:"SENTRY_ENVIRONMENT"`

	CORSOrigins        string `mapstructure:"CORS_ORIGINS"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	GeoIPDBPath string `mapstructure:"GEOIP_DB_PATH"`
	PPPCoupons  string `mapstructure:"PPP_COUPONS"`
}

var keys = []string{
	"HTTP_PORT", "GRPC_PORT", "APP_URL", "GIN_MODE", "LOG_LEVEL",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"REDIS_ADDR", "REDIS_PASSWORD",
	"JWT_SECRET", "JWT_EXPIRES_IN",
	"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
	"MAIL_PROVIDER", "MAIL_FROM", "MAIL_FROM_NAME",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SENDGRID_API_KEY",
	"SENTRY_DSN", "SENTRY_ENVIRONMENT",
	"CORS_ORIGINS", "RATE_LIMIT_PER_MINUTE",
	"GEOIP_DB_PATH", "PPP_COUPONS",
}

// LoadConfig reads app.env from path when present and lets the environment override it.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_EXPIRES_IN", "24h")
	v.SetDefault("MAIL_PROVIDER", "smtp")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)

	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.AppURL == "" {
		return errors.New("config: APP_URL is required")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("config: JWT_EXPIRES_IN must be positive, got %s", c.JWTExpiresIn)
	}
	return nil
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Coupons decodes PPP_COUPONS, a JSON array of purchasing power parity discounts.
func (c Config) Coupons() ([]domain.PPPCoupon, error) {
	if strings.TrimSpace(c.PPPCoupons) == "" {
		return nil, nil
	}
	var coupons []domain.PPPCoupon
	if err := json.Unmarshal([]byte(c.PPPCoupons), &coupons); err != nil {
		return nil, fmt.Errorf("config: invalid PPP_COUPONS: %w", err)
	}
	return coupons, nil
}
