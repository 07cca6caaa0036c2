package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT"      envDefault:"8080"  validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379" validate:"required"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0" validate:"min=0,max=15"`

	JWTSecret       string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	JWTAlgorithm    string        `env:"JWT_ALGORITHM"       envDefault:"HS256" validate:"oneof=HS256 HS384 HS512"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"    envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"   envDefault:"15m"`
	EmailTokenTTL   time.Duration `env:"EMAIL_TOKEN_TTL"     envDefault:"1h"`
	BcryptCost      int           `env:"BCRYPT_COST"         envDefault:"10" validate:"min=4,max=31"`

	SessionCacheTTL     time.Duration `env:"SESSION_CACHE_TTL"     envDefault:"15m"`
	CollaboratorTimeout time.Duration `env:"COLLABORATOR_TIMEOUT"  envDefault:"2s"`

	ResendAPIKey  string `env:"RESEND_API_KEY"  validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom    string `env:"RESEND_FROM"     validate:"required_if=Env production,required_if=Env staging"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" validate:"required_if=Env production,required_if=Env staging,omitempty,url"`

	MetricsPort       string `env:"METRICS_PORT"       envDefault:"9090"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"5" validate:"min=1,max=100"`

	S3Endpoint  string `env:"S3_ENDPOINT"   envDefault:"http://localhost:9000"`
	S3Region    string `env:"S3_REGION"     envDefault:"us-east-1"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Bucket    string `env:"S3_BUCKET"     envDefault:"contacts"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"3"  validate:"min=1"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW"   envDefault:"5s"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
