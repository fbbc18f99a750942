package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port string

	// Security
	JWTSecret      string
	ServiceToken   string
	AllowedOrigins []string

	// Rate Limiting
	RateLimitAPI rate.Limit
	RateLimitWS  rate.Limit

	// WebSocket
	MaxMessageSize int
	TopicGrace     time.Duration

	// Observability
	RecentEventsSize int
	LogLevel         string

	// Accounts
	AccountsFile string
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:             "8080",
		AllowedOrigins:   []string{"http://localhost:8080", "http://localhost:3000"},
		RateLimitAPI:     domain.DefaultRateLimitAPI,
		RateLimitWS:      domain.DefaultRateLimitWS,
		MaxMessageSize:   domain.MaxMessageSize,
		TopicGrace:       domain.TopicGraceWindow,
		RecentEventsSize: domain.RecentEventsSize,
		LogLevel:         "info", // Options: debug, info, warn, error, silent
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	// Server
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	// Security
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if token := os.Getenv("SERVICE_TOKEN"); token != "" {
		cfg.ServiceToken = token
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	// Rate Limiting
	if rl := os.Getenv("RATE_LIMIT_API"); rl != "" {
		if val, err := strconv.Atoi(rl); err == nil && val > 0 {
			cfg.RateLimitAPI = rate.Limit(val)
		}
	}
	if rl := os.Getenv("RATE_LIMIT_WS"); rl != "" {
		if val, err := strconv.Atoi(rl); err == nil && val > 0 {
			cfg.RateLimitWS = rate.Limit(val)
		}
	}

	// WebSocket
	if size := os.Getenv("MAX_MESSAGE_SIZE"); size != "" {
		if val, err := strconv.Atoi(size); err == nil && val > 0 {
			cfg.MaxMessageSize = val
		}
	}
	if grace := os.Getenv("TOPIC_GRACE_SECONDS"); grace != "" {
		if val, err := strconv.Atoi(grace); err == nil && val >= 0 {
			cfg.TopicGrace = time.Duration(val) * time.Second
		}
	}

	// Observability
	if size := os.Getenv("RECENT_EVENTS_SIZE"); size != "" {
		if val, err := strconv.Atoi(size); err == nil && val > 0 {
			cfg.RecentEventsSize = val
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	// Accounts
	if path := os.Getenv("ACCOUNTS_FILE"); path != "" {
		cfg.AccountsFile = path
	}

	return cfg
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
