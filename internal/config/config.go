package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	Port     string
	GinMode  string
	LogLevel string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisURL      string
	SessionSecret string

	JWTSecret string
	JWTExpiry time.Duration

	AdminAccessKey  string
	LeaderAccessKey string

	FrontendURL    string
	AllowedOrigins []string

	MailProvider   string
	SendgridAPIKey string
	MailFrom       string
	MailFromName   string
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string

	NotificationRetention     time.Duration
	NotificationPurgeInterval time.Duration

	OpenAIAPIKey string
}

func Load() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "teamtask"),
		DBPassword: getEnv("DB_PASSWORD", "teamtask"),
		DBName:     getEnv("DB_NAME", "teamtask"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisURL:      getEnv("REDIS_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),

		JWTSecret: getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),

		AdminAccessKey:  getEnv("ADMIN_ACCESS_KEY", ""),
		LeaderAccessKey: getEnv("LEADER_ACCESS_KEY", ""),

		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		MailProvider:   getEnv("MAIL_PROVIDER", "log"),
		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@teamtask.local"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "TeamTask"),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),

		NotificationRetention:     getEnvDuration("NOTIFICATION_RETENTION", 30*24*time.Hour),
		NotificationPurgeInterval: getEnvDuration("NOTIFICATION_PURGE_INTERVAL", time.Hour),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}
}

// IsDevelopment reports whether internal error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the JSON logger shared by the server and the CLI.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.SlogLevel()}))
}
