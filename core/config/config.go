package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	Port    string
	OTel    OTelConfig
	ChatLLM LLMConfig
	AuxLLM  LLMConfig
	GitHub  GitHubConfig
	GitLab  GitLabConfig
	Tracker TrackerConfig
	Cache   CacheConfig
	Session SessionConfig
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// LLMConfig configures one model endpoint. ChatLLM drives the drafting
// conversation (tool calling); AuxLLM serves the cheap auxiliary calls
// (readiness verdicts, extraction, summaries).
type LLMConfig struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
}

type GitHubConfig struct {
	Token string
}

type GitLabConfig struct {
	Token   string
	BaseURL string // Optional: self-hosted instance
}

// TrackerConfig selects the issue tracker provider issues are submitted to.
type TrackerConfig struct {
	Provider string // "github" or "gitlab"
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type SessionConfig struct {
	IdleTimeout time.Duration
}

// Load loads configuration from environment variables.
// In development it also reads a .env file if one is present.
func Load() (Config, error) {
	if getEnv("DASHBOARD_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("DASHBOARD_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "github-dashboard"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		ChatLLM: LLMConfig{
			Provider:  getEnv("CHAT_LLM_PROVIDER", "openai"),
			APIKey:    getEnv("CHAT_LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
			BaseURL:   getEnv("CHAT_LLM_BASE_URL", ""),
			Model:     getEnv("CHAT_LLM_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("CHAT_LLM_MAX_TOKENS", 1024),
		},
		AuxLLM: LLMConfig{
			Provider:  "openai",
			APIKey:    getEnv("OPENAI_API_KEY", ""),
			BaseURL:   getEnv("OPENAI_BASE_URL", ""),
			Model:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("AUX_LLM_MAX_TOKENS", 400),
		},
		GitHub: GitHubConfig{
			Token: getEnv("GITHUB_API", ""),
		},
		GitLab: GitLabConfig{
			Token:   getEnv("GITLAB_TOKEN", ""),
			BaseURL: getEnv("GITLAB_BASE_URL", ""),
		},
		Tracker: TrackerConfig{
			Provider: getEnv("TRACKER_PROVIDER", "github"),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
			TTL:      getEnvDuration("SUMMARY_CACHE_TTL", 24*time.Hour),
		},
		Session: SessionConfig{
			IdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
	}

	if cfg.ChatLLM.APIKey == "" {
		return Config{}, fmt.Errorf("CHAT_LLM_API_KEY or OPENAI_API_KEY is required")
	}

	switch cfg.Tracker.Provider {
	case "github":
		if cfg.GitHub.Token == "" {
			return Config{}, fmt.Errorf("GITHUB_API token is required")
		}
	case "gitlab":
		if cfg.GitLab.Token == "" {
			return Config{}, fmt.Errorf("GITLAB_TOKEN is required")
		}
	default:
		return Config{}, fmt.Errorf("unsupported tracker provider: %s", cfg.Tracker.Provider)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && (c.Provider == "openai" || c.Provider == "anthropic")
}

func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
