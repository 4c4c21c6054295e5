package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Geocode  GeocodeConfig
	Storage  StorageConfig
	Email    EmailConfig
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

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	// Registration emails under this domain are provisioned as local admins.
	AdminEmailDomain string
	OTPTTLMinutes    int
}

// GeocodeConfig points at the Nominatim-compatible geocoder.
type GeocodeConfig struct {
	BaseURL        string
	UserAgent      string
	TimeoutSeconds int
}

// StorageConfig holds object storage settings for issue images.
type StorageConfig struct {
	Endpoint             string
	AccessKey            string
	SecretKey            string
	Bucket               string
	UseSSL               bool
	PublicBaseURL        string
	UploadTimeoutSeconds int
	MaxImageBytes        int64
	MaxImagesPerIssue    int
}

// EmailConfig holds SES delivery settings.
type EmailConfig struct {
	Enabled     bool
	Region      string
	FromAddress string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civic-issue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
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
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 1440),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
			AdminEmailDomain:      getEnv("AUTH_ADMIN_EMAIL_DOMAIN", "admin.com"),
			OTPTTLMinutes:         getEnvAsInt("AUTH_OTP_TTL_MINUTES", 10),
		},
		Geocode: GeocodeConfig{
			BaseURL:        getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:      getEnv("GEOCODE_USER_AGENT", "civic-issue-service/1.0"),
			TimeoutSeconds: getEnvAsInt("GEOCODE_TIMEOUT_SECONDS", 30),
		},
		Storage: StorageConfig{
			Endpoint:             getEnv("STORAGE_ENDPOINT", "127.0.0.1:9000"),
			AccessKey:            os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:            os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:               getEnv("STORAGE_BUCKET", "issue-images"),
			UseSSL:               getEnvAsBool("STORAGE_USE_SSL", false),
			PublicBaseURL:        getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			UploadTimeoutSeconds: getEnvAsInt("STORAGE_UPLOAD_TIMEOUT_SECONDS", 30),
			MaxImageBytes:        int64(getEnvAsInt("STORAGE_MAX_IMAGE_BYTES", 5*1024*1024)),
			MaxImagesPerIssue:    getEnvAsInt("STORAGE_MAX_IMAGES_PER_ISSUE", 3),
		},
		Email: EmailConfig{
			Enabled:     getEnvAsBool("EMAIL_ENABLED", false),
			Region:      getEnv("EMAIL_AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM", "noreply@example.com"),
		},
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

// Timeout returns the geocoder call timeout.
func (g GeocodeConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// UploadTimeout returns the per-image upload deadline.
func (s StorageConfig) UploadTimeout() time.Duration {
	if s.UploadTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.UploadTimeoutSeconds) * time.Second
}

// OTPTTL returns the one-time-code lifetime.
func (a AuthConfig) OTPTTL() time.Duration {
	if a.OTPTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(a.OTPTTLMinutes) * time.Minute
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
