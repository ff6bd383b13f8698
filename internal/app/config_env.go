package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	}

	if cfg.SerpBaseURL == "" {
		cfg.SerpBaseURL = os.Getenv("SERPAPI_URL")
	}
	if cfg.SerpAPIKey == "" {
		cfg.SerpAPIKey = os.Getenv("SERPAPI_KEY")
	}
	if cfg.FileSearchPath == "" {
		cfg.FileSearchPath = os.Getenv("SEARCH_FILE")
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		// Support both OPENROUTER_MODEL and LLM_MODEL; prefer OPENROUTER_MODEL
		v := os.Getenv("OPENROUTER_MODEL")
		if v == "" {
			v = os.Getenv("LLM_MODEL")
		}
		cfg.LLMModel = v
	}
	if cfg.LLMAPIKey == "" {
		v := os.Getenv("OPENROUTER_API_KEY")
		if v == "" {
			v = os.Getenv("LLM_API_KEY")
		}
		cfg.LLMAPIKey = v
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = os.Getenv("USER_AGENT")
	}
	if cfg.FetchTimeout == 0 {
		if s := os.Getenv("FETCH_TIMEOUT"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.FetchTimeout = d
			}
		}
	}
	if cfg.MaxContentBytes == 0 {
		if s := os.Getenv("MAX_CONTENT_BYTES"); s != "" {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
				cfg.MaxContentBytes = n
			}
		}
	}

	if cfg.MaxSources == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_SOURCES"))); err == nil && n > 0 {
			cfg.MaxSources = n
		}
	}
	if cfg.ContextMaxLength == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CONTEXT_MAX_LENGTH"))); err == nil && n > 0 {
			cfg.ContextMaxLength = n
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.DebugVerbose, "DEBUG_VERBOSE")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SERPAPI_URL"); v != "" {
		cfg.SerpBaseURL = v
	}
	if v := os.Getenv("SERPAPI_KEY"); v != "" {
		cfg.SerpAPIKey = v
	}
	if v := os.Getenv("SEARCH_FILE"); v != "" {
		cfg.FileSearchPath = v
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}

	if v := os.Getenv("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if s := os.Getenv("FETCH_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.FetchTimeout = d
		}
	}
	if s := os.Getenv("MAX_CONTENT_BYTES"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			cfg.MaxContentBytes = n
		}
	}
	if s := strings.TrimSpace(os.Getenv("MAX_SOURCES")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.MaxSources = n
		}
	}
	if s := strings.TrimSpace(os.Getenv("CONTEXT_MAX_LENGTH")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.ContextMaxLength = n
		}
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.DebugVerbose, "DEBUG_VERBOSE")
}
