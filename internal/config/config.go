package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBDriver          string
	DBPath            string
	DatabaseURL       string
	LogLevel          string
	ResultWorkerCount int
	ResultQueueSize   int
	SessionTTL        time.Duration
	SweepInterval     time.Duration
	TokenSecret       string
	TokenTTL          time.Duration
	AIBaseURL         string
	AIAPIKey          string
	AIModel           string
	AITimeout         time.Duration
	ContentDir        string
	CORSOrigins       []string
	SecureCookies     bool
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		DBDriver:          strings.ToLower(envOr("DB_DRIVER", "sqlite")),
		DBPath:            envOr("DB_PATH", "file:templemind.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
		ResultWorkerCount: envIntOr("RESULT_WORKER_COUNT", 2),
		ResultQueueSize:   envIntOr("RESULT_QUEUE_SIZE", 128),
		SessionTTL:        envDurationOr("SESSION_TTL", 30*time.Minute),
		SweepInterval:     envDurationOr("SWEEP_INTERVAL", time.Minute),
		TokenSecret:       os.Getenv("TOKEN_SECRET"),
		TokenTTL:          envDurationOr("TOKEN_TTL", 30*24*time.Hour),
		AIBaseURL:         envOr("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:          os.Getenv("AI_API_KEY"),
		AIModel:           envOr("AI_MODEL", "gpt-4o-mini"),
		AITimeout:         envDurationOr("AI_TIMEOUT", 15*time.Second),
		ContentDir:        os.Getenv("CONTENT_DIR"),
		CORSOrigins:       envListOr("CORS_ORIGINS", []string{"*"}),
		SecureCookies:     envBoolOr("SECURE_COOKIES", false),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH cannot be empty"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}

	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be DEBUG, INFO, WARN or ERROR, got %q", c.LogLevel))
	}

	if c.ResultWorkerCount < 1 {
		errs = append(errs, fmt.Errorf("RESULT_WORKER_COUNT must be at least 1, got %d", c.ResultWorkerCount))
	}
	if c.ResultQueueSize < 1 {
		errs = append(errs, fmt.Errorf("RESULT_QUEUE_SIZE must be at least 1, got %d", c.ResultQueueSize))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.AITimeout <= 0 {
		errs = append(errs, fmt.Errorf("AI_TIMEOUT must be positive, got %s", c.AITimeout))
	}
	if c.AIAPIKey != "" && c.AIBaseURL == "" {
		errs = append(errs, errors.New("AI_BASE_URL cannot be empty when AI_API_KEY is set"))
	}
	if c.ContentDir != "" {
		if info, err := os.Stat(c.ContentDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("CONTENT_DIR %q is not a directory", c.ContentDir))
		}
	}

	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
