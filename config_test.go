package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_MODE", "BODY_LIMIT_MB", "UPLOAD_DIR", "LLM_PROVIDER",
		"GOOGLE_API_KEY", "GOOGLE_API_KEY_ALT", "GEMINI_MODEL",
		"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_BASE_URL",
		"LLM_TEMPERATURE", "LLM_TOKENS_PER_SECOND", "LLM_MAX_RETRIES", "PROMPT_CHAR_LIMIT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GOOGLE_API_KEY", "k")
	t.Setenv("PROMPT_CHAR_LIMIT", "abc")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("port: want=%q got=%q", "3000", cfg.Port)
	}
	if cfg.Provider != providerGemini || cfg.GeminiModel != defaultGeminiModel {
		t.Fatalf("provider: got %q model %q", cfg.Provider, cfg.GeminiModel)
	}
	if cfg.PromptCharLimit != defaultPromptCharLimit {
		t.Fatalf("malformed int should fall back: got %d", cfg.PromptCharLimit)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("temperature: got %v", cfg.Temperature)
	}
}

func TestLoadConfigMissingKey(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenRouter")

	_, err := LoadConfig("")
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Code != "missing_api_key" {
		t.Fatalf("want missing_api_key got %v", err)
	}
}

func TestLoadConfigUnknownProvider(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LLM_PROVIDER", "llama")

	_, err := LoadConfig("")
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Code != "unknown_provider" {
		t.Fatalf("want unknown_provider got %v", err)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OPENROUTER_API_KEY=from-file\nLLM_PROVIDER=openrouter\nPORT=8080\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set, even when empty.
	for _, k := range []string{"OPENROUTER_API_KEY", "LLM_PROVIDER", "PORT"} {
		os.Unsetenv(k)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.OpenRouterAPIKey != "from-file" || cfg.Port != "8080" {
		t.Fatalf("env file not applied: %+v", cfg)
	}
	if cfg.OpenRouterBaseURL != defaultOpenRouterAPIURL {
		t.Fatalf("base url: got %q", cfg.OpenRouterBaseURL)
	}
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GOOGLE_API_KEY", "k")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}
