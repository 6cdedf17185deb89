package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/window"
)

type Config struct {
	Env                 string
	HTTPAddr            string
	LogLevel            string
	Timezone            string
	OrderCutoff         string
	TodayOpenHour       int
	BookingHorizonDays  int
	StoreDriver         string
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	JWTSecret           string
	JWTExpirySeconds    int64
	RabbitMQURL         string
	RabbitMQWorkerMode  string
	CorsAllowedOrigins  []string
	WSHeartbeatInterval time.Duration
	ReportFontPath      string

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
	ObjectStoreStorageClass    string
}

func Load() Config {
	cfg := Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8086"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		Timezone:            getEnv("TIMEZONE", "Asia/Taipei"),
		OrderCutoff:         getEnv("ORDER_CUTOFF", "23:15"),
		TodayOpenHour:       int(getEnvInt64("TODAY_OPEN_HOUR", window.DefaultTodayOpenHour)),
		BookingHorizonDays:  int(getEnvInt64("BOOKING_HORIZON_DAYS", window.DefaultHorizonDays)),
		StoreDriver:         getEnv("STORE_DRIVER", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             int(getEnvInt64("REDIS_DB", 0)),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpirySeconds:    getEnvInt64("JWT_EXPIRY", 12*3600),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode:  getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		CorsAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		WSHeartbeatInterval: getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		ReportFontPath:      getEnv("REPORT_FONT_PATH", ""),

		// Object store (Cloudflare R2 / S3-compatible)
		ObjectStoreEndpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT"}, ""),
		ObjectStoreRegion:          getEnvFirst([]string{"OBJECT_STORE_REGION", "R2_REGION"}, "auto"),
		ObjectStoreAccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"}, ""),
		ObjectStoreSecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"}, ""),
		ObjectStoreBucket:          getEnvFirst([]string{"OBJECT_STORE_BUCKET", "R2_BUCKET"}, ""),
		ObjectStorePublicBaseURL:   getEnvFirst([]string{"OBJECT_STORE_PUBLIC_BASE_URL", "R2_PUBLIC_BASE_URL"}, ""),
		ObjectStoreStorageClass:    getEnvFirst([]string{"OBJECT_STORE_STORAGE_CLASS", "R2_STORAGE_CLASS"}, "STANDARD"),
	}

	if cfg.BookingHorizonDays < 0 {
		cfg.BookingHorizonDays = window.DefaultHorizonDays
	}
	if cfg.TodayOpenHour < 0 || cfg.TodayOpenHour > 23 {
		cfg.TodayOpenHour = window.DefaultTodayOpenHour
	}

	// Back-compat: allow R2_ACCOUNT_ID -> endpoint
	if strings.TrimSpace(cfg.ObjectStoreEndpoint) == "" {
		accountID := strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
		if accountID != "" {
			cfg.ObjectStoreEndpoint = "https://" + accountID + ".r2.cloudflarestorage.com"
		}
	}

	return cfg
}

// Policy builds the ordering window from the timezone and cutoff settings.
func (c Config) Policy() (window.Policy, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return window.Policy{}, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	cutoff, err := parseClock(c.OrderCutoff)
	if err != nil {
		return window.Policy{}, fmt.Errorf("parse ORDER_CUTOFF: %w", err)
	}
	policy := window.DefaultPolicy(loc)
	policy.CutoffMinutes = cutoff
	policy.TodayOpenHour = c.TodayOpenHour
	policy.HorizonDays = c.BookingHorizonDays
	return policy, nil
}

func (c Config) StoreOptions() docstore.Options {
	return docstore.Options{
		Driver:        c.StoreDriver,
		DatabaseURL:   c.DatabaseURL,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}

func (c Config) ObjectStoreEnabled() bool {
	return c.ObjectStoreEndpoint != "" && c.ObjectStoreBucket != "" &&
		c.ObjectStoreAccessKeyID != "" && c.ObjectStoreSecretAccessKey != ""
}

func (c Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpirySeconds) * time.Second
}

func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
