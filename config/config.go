package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. It is built once at startup
// and treated as read-only afterwards.
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Upstream UpstreamConfig
	LLM      LLMConfig
	Log      LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 3000
	Mode string // "debug", "release", "test"; default: "release"
}

// AuthConfig controls shared-secret authentication.
type AuthConfig struct {
	// Header is the request header carrying the credential.
	Header string // default: "x-api-key"

	// APIKey is the shared secret. Empty by default for local development,
	// in which case callers must still send the header, with an empty value.
	APIKey string
}

// UpstreamConfig points at the scrape service.
type UpstreamConfig struct {
	// URL is the full scrape endpoint, not a base URL.
	URL string // default: "http://localhost:3002/v2/scrape"

	// Timeout bounds one scrape call. Zero means no timeout.
	Timeout time.Duration
}

// LLMConfig controls the structured extraction provider.
type LLMConfig struct {
	APIKey string

	// BaseURL overrides the OpenAI endpoint (any OpenAI-compatible API).
	BaseURL string

	Model string // default: "gpt-4o"

	// Timeout bounds one completion call. Zero means no timeout.
	Timeout time.Duration
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HOST", "0.0.0.0"),
			Port: envIntOr("PORT", 3000),
			Mode: envOr("GIN_MODE", "release"),
		},
		Auth: AuthConfig{
			Header: envOr("API_KEY_HEADER", "x-api-key"),
			APIKey: os.Getenv("API_KEY"),
		},
		Upstream: UpstreamConfig{
			URL:     envOr("FIRECRAWL_SERVICE", "http://localhost:3002/v2/scrape"),
			Timeout: envDurationOr("SCRAPE_TIMEOUT", 0),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   envOr("OPENAI_MODEL", "gpt-4o"),
			Timeout: envDurationOr("EXTRACT_TIMEOUT", 0),
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
