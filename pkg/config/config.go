package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
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
	Upstream UpstreamConfig
	Cache    CacheConfig
	Sync     SyncConfig
	Admin    AdminConfig
	Export   ExportConfig
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
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig points at the timetable query endpoint.
type UpstreamConfig struct {
	BaseURL     string
	Timeout     time.Duration
	Divisions   []string
	PageSize    int
	Concurrency int
}

// CacheConfig governs caching of meeting search results.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// SyncConfig controls the upload pipeline and its background workers.
type SyncConfig struct {
	APIEnabled bool
	Workers    int
	Retries    int
	Cron       string
	PlanFile   string
}

// AdminConfig holds the bcrypt hash guarding admin endpoints.
type AdminConfig struct {
	APIKeyHash string
}

// ExportConfig defines the term window used when exporting recurring meetings.
type ExportConfig struct {
	Timezone     string
	TermStart    time.Time
	TermEnd      time.Time
	ShareLinkTTL time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 30*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	pageSize := v.GetInt("TTB_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 50
	}
	cfg.Upstream = UpstreamConfig{
		BaseURL:     v.GetString("TTB_BASE_URL"),
		Timeout:     parseDuration(v.GetString("TTB_TIMEOUT"), 30*time.Second),
		Divisions:   splitAndTrim(v.GetString("TTB_DIVISIONS")),
		PageSize:    pageSize,
		Concurrency: v.GetInt("TTB_FETCH_CONCURRENCY"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.Sync = SyncConfig{
		APIEnabled: v.GetBool("ENABLE_SYNC_API"),
		Workers:    v.GetInt("SYNC_WORKERS"),
		Retries:    v.GetInt("SYNC_RETRIES"),
		Cron:       v.GetString("SYNC_CRON"),
		PlanFile:   v.GetString("SYNC_PLAN_FILE"),
	}

	cfg.Admin = AdminConfig{APIKeyHash: v.GetString("ADMIN_API_KEY_HASH")}

	cfg.Export = ExportConfig{
		Timezone:     v.GetString("EXPORT_TIMEZONE"),
		TermStart:    parseDate(v.GetString("EXPORT_TERM_START")),
		TermEnd:      parseDate(v.GetString("EXPORT_TERM_END")),
		ShareLinkTTL: parseDuration(v.GetString("SHARE_LINK_TTL"), 180*24*time.Hour),
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
	v.SetDefault("DB_NAME", "ttb_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "ttb-planner")
	v.SetDefault("JWT_EXPIRATION", "720h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TTB_BASE_URL", "https://api.easi.utoronto.ca/ttb/getPageableCourses")
	v.SetDefault("TTB_TIMEOUT", "30s")
	v.SetDefault("TTB_DIVISIONS", "ARTSC,APSC")
	v.SetDefault("TTB_PAGE_SIZE", 50)
	v.SetDefault("TTB_FETCH_CONCURRENCY", 1)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("ENABLE_SYNC_API", false)
	v.SetDefault("SYNC_WORKERS", 1)
	v.SetDefault("SYNC_RETRIES", 1)
	v.SetDefault("SYNC_CRON", "")
	v.SetDefault("SYNC_PLAN_FILE", "")

	v.SetDefault("ADMIN_API_KEY_HASH", "")

	v.SetDefault("EXPORT_TIMEZONE", "America/Toronto")
	v.SetDefault("EXPORT_TERM_START", "")
	v.SetDefault("EXPORT_TERM_END", "")
	v.SetDefault("SHARE_LINK_TTL", "4320h")
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

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t
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
