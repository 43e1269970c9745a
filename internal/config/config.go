package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Requests RequestsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `validate:"required"`
	Env                   string `validate:"required,oneof=development staging production test"`
	Host                  string
	Port                  string `validate:"required,numeric"`
	Version               string
	RequestTimeoutSeconds int `validate:"gte=0"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32 `validate:"gte=0"`
	MinConns       int32 `validate:"gte=0,ltefield=MaxConns"`
	RunMigrations  bool
	ConnMaxIdleSec int32 `validate:"gte=0"`
	ConnMaxLifeSec int32 `validate:"gte=0"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr                     string `validate:"required,hostname_port"`
	Password                 string
	DB                       int `validate:"gte=0"`
	PrincipalCacheTTLSeconds int `validate:"gte=0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `validate:"required,oneof=debug info warn error"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string   `validate:"required,min=8"`
	AccessTokenTTLMinutes int      `validate:"gt=0"`
	BcryptCost            int      `validate:"gte=4,lte=31"`
	ManagerEmails         []string `validate:"dive,email"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string `validate:"required,startswith=/"`
}

// RequestsConfig holds maintenance request defaults.
type RequestsConfig struct {
	KeyPrefix       string `validate:"required,alpha,max=8"`
	DefaultPageSize int    `validate:"gt=0,lte=500"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "maintenance-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:                     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:                 os.Getenv("REDIS_PASSWORD"),
			DB:                       redisDB,
			PrincipalCacheTTLSeconds: getEnvAsInt("REDIS_PRINCIPAL_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			ManagerEmails:         getEnvAsList("AUTH_MANAGER_EMAILS"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Requests: RequestsConfig{
			KeyPrefix:       getEnv("REQUEST_KEY_PREFIX", "MR"),
			DefaultPageSize: getEnvAsInt("REQUEST_DEFAULT_PAGE_SIZE", 50),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
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

// PrincipalCacheTTL returns how long resolved principals stay cached. Zero disables caching.
func (r RedisConfig) PrincipalCacheTTL() time.Duration {
	return time.Duration(r.PrincipalCacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
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
