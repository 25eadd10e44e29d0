package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingDatabaseURL is returned by Validate when DATABASE_URL is unset.
var ErrMissingDatabaseURL = errors.New("config: DATABASE_URL is required")

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Database
	DatabaseURL      string
	DatabaseSSL      bool
	DatabaseMaxConns int

	// Email delivery
	EmailProvider  string
	SendGridAPIKey string
	AdminEmail     string
	EmailFrom      string
	EmailFromName  string

	// Notification dispatch
	NotifyQueue      string
	NotifyWorkers    int
	NotifyTimeout    time.Duration
	NotifyQueueURL   string
	NotifyRedisKey   string
	TemplateBucket   string
	TemplatePrefix   string
	DeliveryLogTable string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		DatabaseURL:      strings.TrimSpace(getEnv("DATABASE_URL", "")),
		DatabaseSSL:      getEnvAsBool("DATABASE_SSL", true),
		DatabaseMaxConns: getEnvAsInt("DATABASE_MAX_CONNS", 10),

		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Smart Home Leads"),

		NotifyQueue:      strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_QUEUE", "memory"))),
		NotifyWorkers:    getEnvAsInt("NOTIFY_WORKERS", 2),
		NotifyTimeout:    getEnvAsDuration("NOTIFY_TIMEOUT", 20*time.Second),
		NotifyQueueURL:   getEnv("NOTIFY_QUEUE_URL", ""),
		NotifyRedisKey:   getEnv("NOTIFY_REDIS_KEY", "leadgen:notifications"),
		TemplateBucket:   getEnv("TEMPLATE_BUCKET", ""),
		TemplatePrefix:   getEnv("TEMPLATE_PREFIX", "email-templates/"),
		DeliveryLogTable: getEnv("DELIVERY_LOG_TABLE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// Validate fails fast on configuration the service cannot run without.
func (c *Config) Validate() error {
	if c == nil || c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
