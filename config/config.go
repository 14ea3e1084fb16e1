package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	// Bearer token the gateway presents on every request
	GatewayToken string `env:"GATEWAY_TOKEN,required,notEmpty"`

	// Comma-separated CORS origins
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	// Redis is optional; without it locks are process-local.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	LockTTL       time.Duration `env:"LOCK_TTL" envDefault:"30s"`

	// Background recompute of unlocked challenges. 0 disables the job.
	RecalcInterval time.Duration `env:"RECALC_INTERVAL" envDefault:"15m"`
	RecalcTimeout  time.Duration `env:"RECALC_TIMEOUT" envDefault:"2m"`

	R2 R2Config `envPrefix:"R2_"`

	// Public base URL used when building report links
	CDNBaseURL string `env:"CDN_BASE_URL"`
}

// R2Config configures the S3-compatible bucket batch reports are uploaded to.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	Bucket          string `env:"BUCKET_NAME"`
}

// Enabled reports whether enough of the bucket config is present to upload.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

// Load reads .env (when present) and then the process environment into Config.
func Load() (*Config, error) {
	// .env is optional, real environment wins
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LockTTL <= 0 {
		return nil, fmt.Errorf("invalid LOCK_TTL: %s", cfg.LockTTL)
	}
	if cfg.RecalcInterval < 0 {
		return nil, fmt.Errorf("invalid RECALC_INTERVAL: %s", cfg.RecalcInterval)
	}
	return cfg, nil
}
