package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvToConfigPrecedence(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "env-key")
	t.Setenv("OPENROUTER_API_KEY", "env-llm")
	t.Setenv("OPENROUTER_MODEL", "env-model")
	t.Setenv("LLM_MODEL", "ignored-model")
	t.Setenv("FETCH_TIMEOUT", "30s")

	cfg := Config{SerpAPIKey: "explicit"}
	ApplyEnvToConfig(&cfg)

	if cfg.SerpAPIKey != "explicit" {
		t.Fatalf("explicit value must win over env, got %q", cfg.SerpAPIKey)
	}
	if cfg.LLMAPIKey != "env-llm" {
		t.Fatalf("LLMAPIKey = %q", cfg.LLMAPIKey)
	}
	if cfg.LLMModel != "env-model" {
		t.Fatalf("OPENROUTER_MODEL must take precedence, got %q", cfg.LLMModel)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("FetchTimeout = %v", cfg.FetchTimeout)
	}
}

func TestEnvBeatsFileConfig(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
serp:
  key: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	// Same overlay order as the command: env fills first, then the file.
	var cfg Config
	ApplyEnvToConfig(&cfg)
	ApplyFileConfig(&cfg, fc)

	if cfg.SerpAPIKey != "from-env" {
		t.Fatalf("env must win over file, got %q", cfg.SerpAPIKey)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "override")
	t.Setenv("VERBOSE", "false")

	cfg := Config{SerpAPIKey: "from-file", Verbose: true}
	ApplyEnvOverrides(&cfg)

	if cfg.SerpAPIKey != "override" {
		t.Fatalf("env must override file value, got %q", cfg.SerpAPIKey)
	}
	if cfg.Verbose {
		t.Fatalf("falsey env must disable verbose")
	}
}

func TestLoadAndApplyFileConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http:
  addr: ":8080"
llm:
  model: openai/gpt-5-chat
  key: file-key
serp:
  key: file-serp
context:
  maxSources: 10
  maxLength: 8000
verbose: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	cfg := Config{LLMAPIKey: "flag-key"}
	ApplyFileConfig(&cfg, fc)

	if cfg.HTTPAddr != ":8080" || cfg.LLMModel != "openai/gpt-5-chat" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.LLMAPIKey != "flag-key" {
		t.Fatalf("flag value must win over file, got %q", cfg.LLMAPIKey)
	}
	if cfg.MaxSources != 10 || cfg.ContextMaxLength != 8000 {
		t.Fatalf("nested sections not applied: %+v", cfg)
	}
	if !cfg.Verbose {
		t.Fatalf("verbose not applied")
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	ok := Config{SerpAPIKey: "k", LLMAPIKey: "l"}
	if err := ValidateConfig(ok); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	fileOK := Config{FileSearchPath: "results.json", LLMAPIKey: "l"}
	if err := ValidateConfig(fileOK); err != nil {
		t.Fatalf("file provider must substitute for serp key: %v", err)
	}
	if err := ValidateConfig(Config{LLMAPIKey: "l"}); err == nil {
		t.Fatal("missing search configuration must fail")
	}
	if err := ValidateConfig(Config{SerpAPIKey: "k"}); err == nil {
		t.Fatal("missing llm key must fail")
	}
	if err := ValidateConfig(Config{SerpAPIKey: "k", LLMAPIKey: "l", MaxSources: -1}); err == nil {
		t.Fatal("negative limits must fail")
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()
	var cfg Config
	cfg.applyDefaults()
	if cfg.HTTPAddr != ":3000" || cfg.MaxSources != 15 || cfg.ContextMaxLength != 12000 || cfg.MinContextWords != 500 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.UserAgent == "" {
		t.Fatalf("user agent default missing")
	}
}
