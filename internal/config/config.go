package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Auth       AuthConfig
	Services   ServicesConfig
	Redis      RedisConfig
	Referral   ReferralConfig
	WorkerPool WorkerPoolConfig
	Server     ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Username string
	Password string
	Name     string
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	JWTSecret string
}

// ServicesConfig holds external service API keys and configuration
type ServicesConfig struct {
	ResendAPIKey       string
	DefaultEmailSender string
	WebAppURI          string
}

// RedisConfig holds the optional Redis-backed progress session store settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ReferralConfig holds referral and commission business settings
type ReferralConfig struct {
	CodeLength       int
	CommissionAmount float64
	SessionRetention time.Duration
}

// WorkerPoolConfig holds worker pool configuration for background processing
type WorkerPoolConfig struct {
	EmailWorkers int // Number of workers for welcome email dispatch
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}

	cfg := &Config{}

	// Database configuration
	var err error
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Username, err = requireEnv("DB_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.Name, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Auth configuration
	if cfg.Auth.JWTSecret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}

	// Services configuration
	if cfg.Services.ResendAPIKey, err = requireEnv("RESEND_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.Services.DefaultEmailSender, err = requireEnv("DEFAULT_EMAIL_SENDER_ADDRESS"); err != nil {
		return nil, err
	}
	if cfg.Services.WebAppURI, err = requireEnv("WEBAPP_URI"); err != nil {
		return nil, err
	}

	// Redis configuration (optional, falls back to in-memory session store)
	cfg.Redis.Enabled = getEnvWithDefault("REDIS_ENABLED", "false") == "true"
	if cfg.Redis.Enabled {
		if cfg.Redis.Host, err = requireEnv("REDIS_HOST"); err != nil {
			return nil, err
		}
		redisPort := getEnvWithDefault("REDIS_PORT", "6379")
		cfg.Redis.Port, err = strconv.Atoi(redisPort)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_PORT: %w", err)
		}
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
		redisDB := getEnvWithDefault("REDIS_DB", "0")
		cfg.Redis.DB, err = strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_DB: %w", err)
		}
	}

	// Referral configuration
	codeLength := getEnvWithDefault("REFERRAL_CODE_LENGTH", "8")
	cfg.Referral.CodeLength, err = strconv.Atoi(codeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REFERRAL_CODE_LENGTH: %w", err)
	}

	commissionAmount := getEnvWithDefault("COMMISSION_AMOUNT", "100")
	cfg.Referral.CommissionAmount, err = strconv.ParseFloat(commissionAmount, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse COMMISSION_AMOUNT: %w", err)
	}

	sessionRetention := getEnvWithDefault("SESSION_RETENTION", "5m")
	cfg.Referral.SessionRetention, err = time.ParseDuration(sessionRetention)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SESSION_RETENTION: %w", err)
	}

	// Worker pool configuration
	emailWorkers := getEnvWithDefault("EMAIL_WORKERS", "5")
	cfg.WorkerPool.EmailWorkers, err = strconv.Atoi(emailWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EMAIL_WORKERS: %w", err)
	}

	// Server configuration
	serverPort, err := requireEnv("SERVER_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, err = strconv.Atoi(serverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		c.Username, c.Password, c.Host, c.Name)
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
