package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Storage      StorageConfig
	Processing   ProcessingConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Backend        string // "minio" or "local"
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	LocalDir       string
}

type ProcessingConfig struct {
	MaxUploadBytes    int64
	JobTimeout        time.Duration
	JobMaxRetry       int
	WorkerConcurrency int
	StaleAfter        time.Duration
	RetentionDays     int
}

type RateLimitConfig struct {
	PerMinute       int
	UploadPerMinute int
}

// NotificationConfig enables the webhook delivery channel when a URL is set.
type NotificationConfig struct {
	WebhookURL    string
	WebhookSecret string
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}

	jobTimeoutSec, err := getEnvInt("JOB_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TIMEOUT_SECONDS: %w", err)
	}

	jobMaxRetry, err := getEnvInt("JOB_MAX_RETRY", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_MAX_RETRY: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	staleAfterMin, err := getEnvInt("STALE_AFTER_MINUTES", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid STALE_AFTER_MINUTES: %w", err)
	}

	retentionDays, err := getEnvInt("RETENTION_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid RETENTION_DAYS: %w", err)
	}

	ratePerMin, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	uploadPerMin, err := getEnvInt("UPLOAD_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_RATE_LIMIT_PER_MINUTE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "minio"),
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioBucket:    getEnv("MINIO_BUCKET", "fileflow"),
			MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
			LocalDir:       getEnv("LOCAL_STORAGE_DIR", "storage/blobs"),
		},
		Processing: ProcessingConfig{
			MaxUploadBytes:    int64(maxUploadMB) << 20,
			JobTimeout:        time.Duration(jobTimeoutSec) * time.Second,
			JobMaxRetry:       jobMaxRetry,
			WorkerConcurrency: concurrency,
			StaleAfter:        time.Duration(staleAfterMin) * time.Minute,
			RetentionDays:     retentionDays,
		},
		RateLimit: RateLimitConfig{
			PerMinute:       ratePerMin,
			UploadPerMinute: uploadPerMin,
		},
		Notification: NotificationConfig{
			WebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookSecret: getEnv("NOTIFY_WEBHOOK_SECRET", ""),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Storage.Backend == "minio" && c.Storage.MinioAccessKey == "" {
		missing = append(missing, "MINIO_ACCESS_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
