package config

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// devJWTSecret is used when no signing secret is configured outside of
// production. It exists so local development works out of the box; serve
// logs a loud warning whenever it is active.
const devJWTSecret = "insecure-dev-signing-secret"

// Config holds runtime configuration for the portfolio API service.
type Config struct {
	Env            string        `env:"APP_ENV,default=development"`
	Addr           string        `env:"ADDR,default=:8080"`
	DBDSN          string        `env:"DB_DSN,required"`
	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL,default=24h"`
	CookieDomain   string        `env:"COOKIE_DOMAIN"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	OTLPEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	RateLimitDefault int `env:"RATE_LIMIT_DEFAULT,default=60"`
	RateLimitAuth    int `env:"RATE_LIMIT_AUTH,default=5"`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION,default=us-east-1"`

	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL,default=admin@example.com"`
	SeedAdminName     string `env:"SEED_ADMIN_NAME,default=Admin"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

// ErrMissingSecret is returned when JWT_SECRET is absent in production.
var ErrMissingSecret = errors.New("config: JWT_SECRET is required when APP_ENV=production")

// Load returns a Config populated from environment variables. A missing
// signing secret is fatal in production and substituted with an insecure
// development default otherwise; UsingDevSecret reports which happened.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		if cfg.Production() {
			return Config{}, ErrMissingSecret
		}
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

// Production reports whether the service runs in production mode.
func (c Config) Production() bool {
	return c.Env == "production"
}

// UsingDevSecret reports whether the insecure development signing secret
// is in effect.
func (c Config) UsingDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

// CookieSecure reports whether session cookies should carry the Secure
// attribute. Tied to production mode so local HTTP development keeps
// working.
func (c Config) CookieSecure() bool {
	return c.Production()
}
