// File: /config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // REPORT_TIMEZONE must resolve in minimal containers

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Environment    string
	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string
	LogLevel       string

	// Auth
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	OTPTTL          time.Duration
	OTPMaxAttempts  int
	OTPIssuer       string

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	ReportTimezone     string
	RateLimitPerMinute int
	RateLimitBurst     int
	CORSOrigins        []string
	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies     []string

	// Seeding
	SeedData      bool
	AdminEmail    string
	AdminPassword string
}

// Load reads the optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("APP_ENV", "production"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "mysql"),
		DatabaseURL:    getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/bikerental?charset=utf8mb4&parseTime=True&loc=UTC"),
		RedisURL:       getEnv("REDIS_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		OTPTTL:          getEnvDuration("OTP_TTL", 5*time.Minute),
		OTPMaxAttempts:  getEnvInt("OTP_MAX_ATTEMPTS", 5),
		OTPIssuer:       getEnv("OTP_ISSUER", "BikeRental"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 2525),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@bikerental.local"),
		FromName:     getEnv("FROM_NAME", "Bike Rental"),

		ReportTimezone:     getEnv("REPORT_TIMEZONE", "UTC"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 5),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		SeedData:      getEnvBool("SEED_DATA", false),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@bikerental.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	// Rate limiter and OTP checks divide by or compare against these.
	cfg.RateLimitPerMinute = max(cfg.RateLimitPerMinute, 1)
	cfg.RateLimitBurst = max(cfg.RateLimitBurst, 1)
	cfg.OTPMaxAttempts = max(cfg.OTPMaxAttempts, 1)
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ReportLocation returns the time zone used for day and month boundaries in
// reports, falling back to UTC for unknown names.
func (c *Config) ReportLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
