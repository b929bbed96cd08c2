package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	LLM          LLMConfig
	Embedding    EmbeddingConfig
	Storage      StorageConfig
	Departments  DepartmentsConfig
	Notification NotificationConfig
	Telemetry    TelemetryConfig
	Geocoder     GeocoderConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitMB           int
	CORSOrigins           []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines admin session parameters.
type AuthConfig struct {
	SessionSecret     string
	SessionTTLMinutes int
	CookieName        string
	CookieSecure      bool
	BcryptCost        int
	SeedAdminUsername string
	SeedAdminPassword string
	SeedAdminDept     string
}

// LLMConfig configures the generative model used for classification and chat.
type LLMConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	TimeoutSeconds    int
	RequestsPerSecond int
}

// EmbeddingConfig configures the image/text embedding service.
type EmbeddingConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	TimeoutSeconds    int
	RequestsPerSecond int
	Threshold         float64
	MaxImagePixels    int64
}

// StorageConfig selects where complaint images are kept.
type StorageConfig struct {
	Mode      string
	LocalDir  string
	GCSBucket string
}

// DepartmentsConfig points at an optional YAML department catalog.
type DepartmentsConfig struct {
	CatalogPath string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// TelemetryConfig toggles tracing and metrics exposure.
type TelemetryConfig struct {
	TracingEnabled bool
	OTLPEndpoint   string
	SampleRatio    float64
	MetricsPath    string
}

// GeocoderConfig configures the reverse geocoding service.
type GeocoderConfig struct {
	BaseURL        string
	UserAgent      string
	TimeoutSeconds int
}

// Storage modes.
const (
	StorageModeLocal = "local"
	StorageModeGCS   = "gcs"
)

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
			Name:                  getEnv("APP_NAME", "grievance-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 16),
			CORSOrigins:           getEnvAsList("CORS_ORIGINS", []string{"http://127.0.0.1:5500", "http://localhost:5500"}),
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
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionSecret:     getEnv("AUTH_SESSION_SECRET", "dev-secret"),
			SessionTTLMinutes: getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 60),
			CookieName:        getEnv("AUTH_COOKIE_NAME", "grievance_session"),
			CookieSecure:      getEnvAsBool("AUTH_COOKIE_SECURE", false),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
			SeedAdminUsername: os.Getenv("AUTH_SEED_ADMIN_USERNAME"),
			SeedAdminPassword: os.Getenv("AUTH_SEED_ADMIN_PASSWORD"),
			SeedAdminDept:     os.Getenv("AUTH_SEED_ADMIN_DEPARTMENT"),
		},
		LLM: LLMConfig{
			APIKey:            os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:           os.Getenv("LLM_BASE_URL"),
			Model:             getEnv("LLM_MODEL", "claude-sonnet-4-5-20250929"),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 512),
			TimeoutSeconds:    getEnvAsInt("LLM_TIMEOUT_SECONDS", 20),
			RequestsPerSecond: getEnvAsInt("LLM_REQUESTS_PER_SECOND", 5),
		},
		Embedding: EmbeddingConfig{
			BaseURL:           getEnv("EMBEDDING_BASE_URL", "http://127.0.0.1:8090"),
			APIKey:            os.Getenv("EMBEDDING_API_KEY"),
			Model:             getEnv("EMBEDDING_MODEL", "ViT-B/32"),
			TimeoutSeconds:    getEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 15),
			RequestsPerSecond: getEnvAsInt("EMBEDDING_REQUESTS_PER_SECOND", 10),
			Threshold:         getEnvAsFloat("EMBEDDING_SIMILARITY_THRESHOLD", 25.0),
			MaxImagePixels:    int64(getEnvAsInt("EMBEDDING_MAX_IMAGE_PIXELS", 40_000_000)),
		},
		Storage: StorageConfig{
			Mode:      strings.ToLower(getEnv("STORAGE_MODE", StorageModeLocal)),
			LocalDir:  getEnv("STORAGE_LOCAL_DIR", "uploads"),
			GCSBucket: os.Getenv("STORAGE_GCS_BUCKET"),
		},
		Departments: DepartmentsConfig{
			CatalogPath: os.Getenv("DEPARTMENTS_FILE"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SampleRatio:    getEnvAsFloat("OTEL_SAMPLER_RATIO", 0.1),
			MetricsPath:    getEnv("METRICS_PATH", "/metrics"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:        getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:      getEnv("GEOCODER_USER_AGENT", "grievance-geoapi"),
			TimeoutSeconds: getEnvAsInt("GEOCODER_TIMEOUT_SECONDS", 10),
		},
	}

	if cfg.Storage.Mode != StorageModeLocal && cfg.Storage.Mode != StorageModeGCS {
		return nil, fmt.Errorf("invalid STORAGE_MODE %q", cfg.Storage.Mode)
	}
	if cfg.Storage.Mode == StorageModeGCS && cfg.Storage.GCSBucket == "" {
		return nil, fmt.Errorf("STORAGE_GCS_BUCKET required when STORAGE_MODE=gcs")
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

// SessionTTL returns the admin session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// Timeout returns the per-call model timeout.
func (l LLMConfig) Timeout() time.Duration {
	return secondsOr(l.TimeoutSeconds, 20*time.Second)
}

// Timeout returns the per-call embedding timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return secondsOr(e.TimeoutSeconds, 15*time.Second)
}

// Timeout returns the geocoder request timeout.
func (g GeocoderConfig) Timeout() time.Duration {
	return secondsOr(g.TimeoutSeconds, 10*time.Second)
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
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

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
