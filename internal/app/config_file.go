package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested sections
// map naturally to flags and env.
type FileConfig struct {
	HTTP struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"http" json:"http"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Serp struct {
		URL string `yaml:"url" json:"url"`
		Key string `yaml:"key" json:"key"`
	} `yaml:"serp" json:"serp"`

	Search struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"search" json:"search"`

	Scrape struct {
		UserAgent       string        `yaml:"ua" json:"ua"`
		Timeout         time.Duration `yaml:"timeout" json:"timeout"`
		MaxContentBytes int64         `yaml:"maxContentBytes" json:"maxContentBytes"`
	} `yaml:"scrape" json:"scrape"`

	Context struct {
		MaxSources int `yaml:"maxSources" json:"maxSources"`
		MaxLength  int `yaml:"maxLength" json:"maxLength"`
		MinWords   int `yaml:"minWords" json:"minWords"`
	} `yaml:"context" json:"context"`

	Verbose      bool `yaml:"verbose" json:"verbose"`
	DebugVerbose bool `yaml:"debugVerbose" json:"debugVerbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero. Flags should already have been parsed; file config
// supplies defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.HTTPAddr == "" && fc.HTTP.Addr != "" {
		cfg.HTTPAddr = fc.HTTP.Addr
	}
	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.SerpBaseURL == "" && fc.Serp.URL != "" {
		cfg.SerpBaseURL = fc.Serp.URL
	}
	if cfg.SerpAPIKey == "" && fc.Serp.Key != "" {
		cfg.SerpAPIKey = fc.Serp.Key
	}
	if cfg.FileSearchPath == "" && fc.Search.File != "" {
		cfg.FileSearchPath = fc.Search.File
	}
	if cfg.UserAgent == "" && fc.Scrape.UserAgent != "" {
		cfg.UserAgent = fc.Scrape.UserAgent
	}
	if cfg.FetchTimeout == 0 && fc.Scrape.Timeout > 0 {
		cfg.FetchTimeout = fc.Scrape.Timeout
	}
	if cfg.MaxContentBytes == 0 && fc.Scrape.MaxContentBytes > 0 {
		cfg.MaxContentBytes = fc.Scrape.MaxContentBytes
	}
	if cfg.MaxSources == 0 && fc.Context.MaxSources > 0 {
		cfg.MaxSources = fc.Context.MaxSources
	}
	if cfg.ContextMaxLength == 0 && fc.Context.MaxLength > 0 {
		cfg.ContextMaxLength = fc.Context.MaxLength
	}
	if cfg.MinContextWords == 0 && fc.Context.MinWords > 0 {
		cfg.MinContextWords = fc.Context.MinWords
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if !cfg.DebugVerbose && fc.DebugVerbose {
		cfg.DebugVerbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
// A file-backed search provider may substitute for the SerpAPI key.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.SerpAPIKey) == "" && strings.TrimSpace(cfg.FileSearchPath) == "" {
		return errors.New("config: serp.key is required (or set SERPAPI_KEY / SEARCH_FILE)")
	}
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		return errors.New("config: llm.key is required (or set OPENROUTER_API_KEY)")
	}
	if cfg.MaxSources < 0 || cfg.ContextMaxLength < 0 || cfg.MinContextWords < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
