package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Sources  SourcesConfig
	Auth     AuthConfig
	Schedule ScheduleConfig
	Report   ReportConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	// WSAllowedOrigins empty accepts any Origin on /ws/insights.
	WSAllowedOrigins []string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type SourcesConfig struct {
	TheirstackAPIKey  string
	TheirstackBaseURL string
	RemotiveBaseURL   string
	ArbeitnowBaseURL  string
	HTTPTimeout       time.Duration
	RetryAttempts     int
	RetryBaseDelay    time.Duration
}

type AuthConfig struct {
	AdminTokenSecret string
	AdminTokenTTL    time.Duration
}

// ScheduleConfig drives the periodic full run in the server. An empty Cron
// disables it.
type ScheduleConfig struct {
	Cron       string
	Sources    []string
	Location   string
	Role       string
	Level      string
	Days       int
	MaxResults int
}

type ReportConfig struct {
	S3Region string
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// LoadDotEnv reads .env files when present. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}
	optInt := func(key string, def int) int {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return n
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return d
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "skillpulse"),
		Environment: opt("APP_ENV", "development"),
		HTTPPort:    opt("HTTP_PORT", "8080"),

		WSAllowedOrigins: splitList(opt("WS_ALLOWED_ORIGINS", "")),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     req("DB_HOST"),
		DBPort:     opt("DB_PORT", "5432"),
		DBName:     req("DB_NAME"),
		DBUser:     req("DB_USER"),
		DBPassword: opt("DB_PASSWORD", ""),
		DBSSLMode:  opt("DB_SSL_MODE", "disable"),

		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 4)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", ""),
		Port:     opt("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD", ""),
		DB:       optInt("REDIS_DB", 0),
		TTL:      optDuration("REDIS_TTL", 10*time.Minute),
	}

	cfg.Sources = SourcesConfig{
		TheirstackAPIKey:  opt("THEIRSTACK_API_KEY", ""),
		TheirstackBaseURL: opt("THEIRSTACK_BASE_URL", ""),
		RemotiveBaseURL:   opt("REMOTIVE_BASE_URL", ""),
		ArbeitnowBaseURL:  opt("ARBEITNOW_BASE_URL", ""),
		HTTPTimeout:       optDuration("SOURCE_HTTP_TIMEOUT", 30*time.Second),
		RetryAttempts:     optInt("SOURCE_RETRY_ATTEMPTS", 3),
		RetryBaseDelay:    optDuration("SOURCE_RETRY_BASE_DELAY", time.Second),
	}

	cfg.Auth = AuthConfig{
		AdminTokenSecret: opt("ADMIN_TOKEN_SECRET", ""),
		AdminTokenTTL:    optDuration("ADMIN_TOKEN_TTL", 24*time.Hour),
	}

	cfg.Schedule = ScheduleConfig{
		Cron:       opt("INGEST_SCHEDULE", ""),
		Sources:    splitList(opt("INGEST_SOURCES", "all")),
		Location:   opt("INGEST_LOCATION", ""),
		Role:       opt("INGEST_ROLE", "any"),
		Level:      opt("INGEST_LEVEL", "any"),
		Days:       optInt("INGEST_DAYS", 30),
		MaxResults: optInt("INGEST_MAX_RESULTS", 250),
	}

	cfg.Report = ReportConfig{
		S3Region: opt("REPORT_S3_REGION", ""),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
