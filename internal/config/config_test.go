package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_URL", "https://courses.example.com")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	body := "HTTP_PORT=9000\nJWT_SECRET=file-secret\nAPP_URL=https://file.example.com\nJWT_EXPIRES_IN=2h\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(body), 0o600))
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.HTTPPort, "environment wins over the file")
	assert.Equal(t, "file-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
}

func TestValidate(t *testing.T) {
	cfg := Config{AppURL: "https://x", JWTExpiresIn: time.Hour}
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWTSecret = "s"
	cfg.AppURL = ""
	assert.ErrorContains(t, cfg.Validate(), "APP_URL")
}

func TestCoupons(t *testing.T) {
	cfg := Config{PPPCoupons: `[{"stripeCouponId":"ppp-50","discountPercentage":0.5,"countryCodes":["IN","PK"]}]`}
	coupons, err := cfg.Coupons()
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, "ppp-50", coupons[0].StripeCouponID)
	assert.Equal(t, []string{"IN", "PK"}, coupons[0].CountryCodes)

	_, err = Config{PPPCoupons: "{"}.Coupons()
	assert.Error(t, err)

	coupons, err = Config{}.Coupons()
	assert.NoError(t, err)
	assert.Nil(t, coupons)
}

func TestDSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "courses", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=courses port=5432 sslmode=disable", cfg.DSN())
}
