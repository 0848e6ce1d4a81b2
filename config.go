package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	providerGemini     = "gemini"
	providerOpenRouter = "openrouter"

	defaultGeminiModel      = "gemini-1.5-flash"
	defaultOpenRouterModel  = "google/gemini-flash-1.5-8b"
	defaultOpenRouterAPIURL = "https://openrouter.ai/api/v1"
)

type Config struct {
	Port        string
	LogMode     string
	BodyLimitMB int
	UploadDir   string

	Provider          string
	GoogleAPIKey      string
	GoogleAPIKeyAlt   string
	GeminiModel       string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string

	Temperature     float64
	TokensPerSecond int
	MaxRetries      int
	PromptCharLimit int
}

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Code string
	Msg  string
}

func (e *ConfigError) Error() string {
	return e.Code + ": " + e.Msg
}

// LoadConfig reads envFile (if present) into the environment and resolves
// the service settings from it.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Port:        envString("PORT", "3000"),
		LogMode:     envString("LOG_MODE", "dev"),
		BodyLimitMB: envInt("BODY_LIMIT_MB", 15),
		UploadDir:   envString("UPLOAD_DIR", os.TempDir()),

		Provider:          strings.ToLower(envString("LLM_PROVIDER", providerGemini)),
		GoogleAPIKey:      envString("GOOGLE_API_KEY", ""),
		GoogleAPIKeyAlt:   envString("GOOGLE_API_KEY_ALT", ""),
		GeminiModel:       envString("GEMINI_MODEL", defaultGeminiModel),
		OpenRouterAPIKey:  envString("OPENROUTER_API_KEY", ""),
		OpenRouterModel:   envString("OPENROUTER_MODEL", defaultOpenRouterModel),
		OpenRouterBaseURL: envString("OPENROUTER_BASE_URL", defaultOpenRouterAPIURL),

		Temperature:     envFloat("LLM_TEMPERATURE", 0.2),
		TokensPerSecond: envInt("LLM_TOKENS_PER_SECOND", 30000),
		MaxRetries:      envInt("LLM_MAX_RETRIES", 3),
		PromptCharLimit: envInt("PROMPT_CHAR_LIMIT", defaultPromptCharLimit),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Provider {
	case providerGemini:
		if c.GoogleAPIKey == "" {
			return &ConfigError{Code: "missing_api_key", Msg: "GOOGLE_API_KEY is not set"}
		}
	case providerOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return &ConfigError{Code: "missing_api_key", Msg: "OPENROUTER_API_KEY is not set"}
		}
	default:
		return &ConfigError{Code: "unknown_provider", Msg: fmt.Sprintf("LLM_PROVIDER %q is not supported", c.Provider)}
	}
	if c.BodyLimitMB <= 0 {
		return &ConfigError{Code: "invalid_body_limit", Msg: "BODY_LIMIT_MB must be positive"}
	}
	return nil
}

func envString(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envFloat(name string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
