package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable at startup.
const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
	StoreBackendSQLite   = "sqlite"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	SQLite       SQLiteConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	SMS          SMSConfig
	Classifier   ClassifierConfig
	Photos       PhotoConfig
	Reminder     ReminderConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig picks the issue/account persistence backend.
type StoreConfig struct {
	Backend string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// SQLiteConfig holds the database file location.
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled        bool
	Addr           string
	Password       string
	DB             int
	LockTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	AdminEmail            string
	AdminPassword         string
}

// NotificationConfig holds e-mail and department routing settings.
type NotificationConfig struct {
	EmailFrom       string
	FromName        string
	DepartmentsFile string
	QueueSize       int
}

// SMSConfig holds Telerivet gateway settings.
type SMSConfig struct {
	APIKey         string
	ProjectID      string
	PhoneID        string
	WebhookSecret  string
	BaseURL        string
	RatePerSecond  float64
	Burst          int
	ASCIIOnly      bool
	TimeoutSeconds int
}

// ClassifierConfig points at an optional remote text-understanding service.
type ClassifierConfig struct {
	URL            string
	TimeoutSeconds int
}

// PhotoConfig holds S3-compatible storage values for report photos.
type PhotoConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	MaxBytes        int
}

// ReminderConfig schedules completion reminders.
type ReminderConfig struct {
	Cron string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("STORE_BACKEND", StoreBackendMemory))
	switch backend {
	case StoreBackendMemory, StoreBackendPostgres, StoreBackendSQLite:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civic-intake"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Backend: backend,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "civic-intake.db"),
		},
		Redis: RedisConfig{
			Enabled:        getEnvAsBool("REDIS_ENABLED", false),
			Addr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             redisDB,
			LockTTLSeconds: getEnvAsInt("REDIS_LOCK_TTL_SECONDS", 10),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminEmail:            os.Getenv("AUTH_ADMIN_EMAIL"),
			AdminPassword:         os.Getenv("AUTH_ADMIN_PASSWORD"),
		},
		Notification: NotificationConfig{
			EmailFrom:       getEnv("NOTIFY_EMAIL_FROM", "noreply@civic-intake.local"),
			FromName:        getEnv("NOTIFY_FROM_NAME", "Municipal Voice Assistant"),
			DepartmentsFile: os.Getenv("NOTIFY_DEPARTMENTS_FILE"),
			QueueSize:       getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
		SMS: SMSConfig{
			APIKey:         os.Getenv("TELERIVET_API_KEY"),
			ProjectID:      os.Getenv("TELERIVET_PROJECT_ID"),
			PhoneID:        os.Getenv("TELERIVET_PHONE_ID"),
			WebhookSecret:  os.Getenv("TELERIVET_WEBHOOK_SECRET"),
			BaseURL:        getEnv("TELERIVET_BASE_URL", "https://api.telerivet.com/v1"),
			RatePerSecond:  getEnvAsFloat("TELERIVET_RATE_PER_SECOND", 1),
			Burst:          getEnvAsInt("TELERIVET_BURST", 5),
			ASCIIOnly:      getEnvAsBool("TELERIVET_ASCII_ONLY", false),
			TimeoutSeconds: getEnvAsInt("TELERIVET_TIMEOUT_SECONDS", 10),
		},
		Classifier: ClassifierConfig{
			URL:            os.Getenv("CLASSIFIER_URL"),
			TimeoutSeconds: getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 5),
		},
		Photos: PhotoConfig{
			Bucket:          os.Getenv("PHOTOS_S3_BUCKET"),
			Region:          getEnv("PHOTOS_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("PHOTOS_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("PHOTOS_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("PHOTOS_S3_SECRET_ACCESS_KEY"),
			MaxBytes:        getEnvAsInt("PHOTOS_MAX_BYTES", 5*1024*1024),
		},
		Reminder: ReminderConfig{
			Cron: getEnv("REMINDER_CRON", "0 9 * * *"),
		},
	}

	if cfg.Store.Backend == StoreBackendPostgres && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN required when STORE_BACKEND=%s", StoreBackendPostgres)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LockTTL returns how long a submission claim is held in Redis.
func (r RedisConfig) LockTTL() time.Duration {
	if r.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.LockTTLSeconds) * time.Second
}

// Configured reports whether outbound SMS can be sent.
func (s SMSConfig) Configured() bool {
	return s.APIKey != "" && s.ProjectID != ""
}

// Timeout returns the per-request gateway timeout.
func (s SMSConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Timeout returns the remote classifier call timeout.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Enabled reports whether photo uploads have a bucket to go to.
func (p PhotoConfig) Enabled() bool {
	return p.Bucket != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
