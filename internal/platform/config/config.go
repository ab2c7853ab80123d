package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	AttachmentFS    = "fs"
	AttachmentMinio = "minio"
)

type Config struct {
	Addr                string
	Environment         string
	LogLevel            string
	JWTSecret           string
	SessionTTL          time.Duration
	StoreDriver         string
	StorePath           string
	StoreKeyPrefix      string
	DatabaseURL         string
	MigrationsDir       string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	SeedSampleLeaves    bool
	StrictDecisions     bool
	AttachmentDriver    string
	AttachmentDir       string
	MinioEndpoint       string
	MinioAccessKey      string
	MinioSecretKey      string
	MinioBucket         string
	MinioUseSSL         bool
	MaxBodyBytes        int64
	MaxAttachmentBytes  int64
	MetricsEnabled      bool
	RateLimitPerMinute  int
	AuditRetention      int
	NotifyRetention     int
	IdempotencyTTL      time.Duration
	EmailEnabled        bool
	EmailFrom           string
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	SMTPUseTLS          bool
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		Environment:         getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		SessionTTL:          getEnvDuration("SESSION_TTL", 12*time.Hour),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		StorePath:           getEnv("STORE_PATH", "leaveportal.db"),
		StoreKeyPrefix:      getEnv("STORE_KEY_PREFIX", "knockturn_"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "migrations"),
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		SeedSampleLeaves:    getEnvBool("SEED_SAMPLE_LEAVES", true),
		StrictDecisions:     getEnvBool("LEAVE_STRICT_DECISIONS", false),
		AttachmentDriver:    strings.ToLower(getEnv("ATTACHMENT_DRIVER", AttachmentFS)),
		AttachmentDir:       getEnv("ATTACHMENT_DIR", "storage/attachments"),
		MinioEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:      getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:         getEnv("MINIO_BUCKET", "leave-attachments"),
		MinioUseSSL:         getEnvBool("MINIO_USE_SSL", false),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MaxAttachmentBytes:  int64(getEnvInt("MAX_ATTACHMENT_BYTES", 2*1024*1024)),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		AuditRetention:      getEnvInt("AUDIT_RETENTION", 1000),
		NotifyRetention:     getEnvInt("NOTIFICATION_RETENTION", 100),
		IdempotencyTTL:      getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		EmailEnabled:        getEnvBool("EMAIL_ENABLED", false),
		EmailFrom:           getEnv("EMAIL_FROM", "no-reply@leaveportal.local"),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:          getEnvBool("SMTP_USE_TLS", false),
		ReadHeaderTimeout:   getEnvDuration("READ_HEADER_TIMEOUT", 5*time.Second),
		ShutdownGracePeriod: getEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.StorePath) == "" {
			return fmt.Errorf("STORE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.StoreDriver)
	}

	switch c.AttachmentDriver {
	case AttachmentFS:
		if strings.TrimSpace(c.AttachmentDir) == "" {
			return fmt.Errorf("ATTACHMENT_DIR is required for the fs attachment driver")
		}
	case AttachmentMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET must be set when ATTACHMENT_DRIVER is minio")
		}
	default:
		return fmt.Errorf("ATTACHMENT_DRIVER %q is not supported", c.AttachmentDriver)
	}

	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("MAX_ATTACHMENT_BYTES must be positive")
	}
	if c.AuditRetention < 0 {
		return fmt.Errorf("AUDIT_RETENTION must not be negative")
	}
	if c.NotifyRetention < 0 {
		return fmt.Errorf("NOTIFICATION_RETENTION must not be negative")
	}
	if c.IdempotencyTTL < 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must not be negative")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}

// SigningSecret returns the JWT secret, falling back to a fixed development
// value outside production.
func (c Config) SigningSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return "dev-secret"
}
