package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Environment string
	LogLevel    string

	HTTPHost string
	HTTPPort string

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ConfirmTokenTTL time.Duration
	ResetTokenTTL   time.Duration

	// BackendURL is the externally reachable URL of this service, used in
	// email confirmation links. FrontendURL is the client application URL,
	// used in password reset links. Both are validated at the point a flow
	// builds a link, so the service can still boot without them locally.
	BackendURL  string
	FrontendURL string

	PostmarkServerToken  string
	PostmarkAccountToken string
	EmailSender          string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		Environment: getEnv("APP_ENV", EnvDevelopment),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		HTTPHost: getEnv("HTTP_HOST", ""),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MySQLDSN: mysqlDSN,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		JWTSecret:       jwtSecret,
		JWTIssuer:       getEnv("JWT_ISSUER", "codelens-auth"),
		JWTAudience:     getEnv("JWT_AUDIENCE", "codelens-app"),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ConfirmTokenTTL: getDurationEnv("CONFIRM_TOKEN_TTL", 24*time.Hour),
		ResetTokenTTL:   getDurationEnv("RESET_TOKEN_TTL", 1*time.Hour),

		BackendURL:  getEnv("BACKEND_URL", ""),
		FrontendURL: getEnv("FRONTEND_URL", ""),

		PostmarkServerToken:  getEnv("POSTMARK_SERVER_TOKEN", ""),
		PostmarkAccountToken: getEnv("POSTMARK_ACCOUNT_TOKEN", ""),
		EmailSender:          getEnv("EMAIL_SENDER", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
