package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Resume storage modes.
const (
	ResumeStorageInline     = "inline"
	ResumeStorageFilesystem = "filesystem"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Review   ReviewConfig
	Wizard   WizardConfig
	Resumes  ResumesConfig
	Jobs     JobsConfig
	Queue    QueueConfig
	Admin    AdminConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReviewConfig selects the reviewer capabilities and paging bounds.
type ReviewConfig struct {
	EnableRating      bool
	EnableBulkActions bool
	DefaultPageSize   int
	MaxPageSize       int
}

// WizardConfig tunes the public application wizard and its drafts.
type WizardConfig struct {
	DraftDebounce      time.Duration
	DraftTTL           time.Duration
	SessionIdleTTL     time.Duration
	MaxResumeSizeBytes int64
	AllowedMIMEs       []string
}

// ResumesConfig controls where submitted resumes live and how download links are signed.
type ResumesConfig struct {
	StorageMode     string
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// JobsConfig governs the public job listing cache.
type JobsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// QueueConfig sizes the background worker pool used for draft writes.
type QueueConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// AdminConfig seeds the first back-office account when the users table has none with that email.
type AdminConfig struct {
	Email    string
	Password string
	FullName string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Review = ReviewConfig{
		EnableRating:      v.GetBool("REVIEW_ENABLE_RATING"),
		EnableBulkActions: v.GetBool("REVIEW_ENABLE_BULK_ACTIONS"),
		DefaultPageSize:   positiveOr(v.GetInt("REVIEW_DEFAULT_PAGE_SIZE"), 10),
		MaxPageSize:       positiveOr(v.GetInt("REVIEW_MAX_PAGE_SIZE"), 100),
	}

	maxResume := v.GetInt64("WIZARD_MAX_RESUME_SIZE")
	if maxResume <= 0 {
		maxResume = 5 * 1024 * 1024
	}
	cfg.Wizard = WizardConfig{
		DraftDebounce:      parseDuration(v.GetString("WIZARD_DRAFT_DEBOUNCE"), 2*time.Second),
		DraftTTL:           parseDuration(v.GetString("WIZARD_DRAFT_TTL"), 30*24*time.Hour),
		SessionIdleTTL:     parseDuration(v.GetString("WIZARD_SESSION_IDLE_TTL"), 2*time.Hour),
		MaxResumeSizeBytes: maxResume,
		AllowedMIMEs:       splitAndTrim(v.GetString("WIZARD_ALLOWED_MIME_TYPES")),
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("RESUME_STORAGE_MODE")))
	if mode != ResumeStorageFilesystem {
		mode = ResumeStorageInline
	}
	cfg.Resumes = ResumesConfig{
		StorageMode:     mode,
		StorageDir:      v.GetString("RESUME_STORAGE_DIR"),
		SignedURLSecret: v.GetString("RESUME_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("RESUME_SIGNED_URL_TTL"), 15*time.Minute),
	}

	cfg.Jobs = JobsConfig{
		CacheEnabled: v.GetBool("ENABLE_JOBS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("JOBS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Queue = QueueConfig{
		Workers:    positiveOr(v.GetInt("QUEUE_WORKERS"), 1),
		MaxRetries: positiveOr(v.GetInt("QUEUE_MAX_RETRIES"), 3),
		RetryDelay: parseDuration(v.GetString("QUEUE_RETRY_DELAY"), time.Second),
	}

	cfg.Admin = AdminConfig{
		Email:    strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		Password: v.GetString("ADMIN_PASSWORD"),
		FullName: v.GetString("ADMIN_FULL_NAME"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "careers")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "careers-admin-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REVIEW_ENABLE_RATING", true)
	v.SetDefault("REVIEW_ENABLE_BULK_ACTIONS", true)
	v.SetDefault("REVIEW_DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("REVIEW_MAX_PAGE_SIZE", 100)

	v.SetDefault("WIZARD_DRAFT_DEBOUNCE", "2s")
	v.SetDefault("WIZARD_DRAFT_TTL", "720h")
	v.SetDefault("WIZARD_SESSION_IDLE_TTL", "2h")
	v.SetDefault("WIZARD_MAX_RESUME_SIZE", 5*1024*1024)
	v.SetDefault("WIZARD_ALLOWED_MIME_TYPES", "application/pdf,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document")

	v.SetDefault("RESUME_STORAGE_MODE", ResumeStorageInline)
	v.SetDefault("RESUME_STORAGE_DIR", "./resumes")
	v.SetDefault("RESUME_SIGNED_URL_SECRET", "dev_resume_secret")
	v.SetDefault("RESUME_SIGNED_URL_TTL", "15m")

	v.SetDefault("ENABLE_JOBS_CACHE", false)
	v.SetDefault("JOBS_CACHE_TTL", "5m")

	v.SetDefault("QUEUE_WORKERS", 1)
	v.SetDefault("QUEUE_MAX_RETRIES", 3)
	v.SetDefault("QUEUE_RETRY_DELAY", "1s")

	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_FULL_NAME", "Administrator")
}

func isMissingFile(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such file")
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
