package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Remote API
	APIURL         string
	AppName        string
	RequestTimeout time.Duration

	// Token persistence (empty = user config dir default)
	TokenPath string

	// TUI log destination
	LogPath string

	// Client-side AI throttle
	AIRequestsPerMinute int
	AIBurst             int

	// Stub server
	StubPort     string
	StubFixtures string

	// Allowed origin for browser clients of the stub
	FrontendURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		APIURL:         envOrDefault("ALPHA_API_URL", "https://api.kiwiq.ai"),
		AppName:        envOrDefault("APP_NAME", "Alpha"),
		RequestTimeout: time.Duration(envOrDefaultInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,

		TokenPath: os.Getenv("ALPHA_TOKEN_PATH"),
		LogPath:   envOrDefault("ALPHA_LOG_PATH", "alpha.log"),

		AIRequestsPerMinute: envOrDefaultInt("AI_REQUESTS_PER_MINUTE", 20),
		AIBurst:             envOrDefaultInt("AI_BURST", 5),

		StubPort:     envOrDefault("STUB_PORT", "8900"),
		StubFixtures: os.Getenv("STUB_FIXTURES"),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
