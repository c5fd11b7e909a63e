package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Email EmailConfig
	Sweep SweepConfig

	SeedDevData bool
}

// EmailConfig configures the outbound transactional-email provider.
type EmailConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

// SweepConfig configures the expired-event sweep.
type SweepConfig struct {
	RefreshInterval time.Duration
	LockTTL         time.Duration
	RedisAddr       string
	RedisPassword   string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	return Config{
		AppName:     getenv("APP_SERVICE", "voluntaria"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "voluntaria"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 30),

		Email: EmailConfig{
			Enabled: getenvBool("EMAIL_ENABLED", true),
			BaseURL: getenv("EMAIL_API_URL", "https://api.resend.com"),
			APIKey:  strings.TrimSpace(getenv("EMAIL_API_KEY", "")),
			From:    getenv("EMAIL_FROM", "Voluntaria <noreply@voluntaria.app>"),
			Timeout: getenvDuration("EMAIL_TIMEOUT", 10*time.Second),
		},

		Sweep: SweepConfig{
			RefreshInterval: getenvDuration("SWEEP_REFRESH_INTERVAL", 5*time.Minute),
			LockTTL:         getenvDuration("SWEEP_LOCK_TTL", time.Minute),
			RedisAddr:       strings.TrimSpace(getenv("SWEEP_REDIS_ADDR", "")),
			RedisPassword:   getenv("SWEEP_REDIS_PASSWORD", ""),
		},

		SeedDevData: getenvBool("SEED_DEV_DATA", false),
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
