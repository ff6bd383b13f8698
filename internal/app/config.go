package app

import "time"

// Config holds runtime configuration for the service.
type Config struct {
	// HTTP
	HTTPAddr string

	// Search
	SerpBaseURL    string
	SerpAPIKey     string
	FileSearchPath string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Scraping
	UserAgent       string
	FetchTimeout    time.Duration
	MaxContentBytes int64

	// Context preparation
	MaxSources       int
	ContextMaxLength int
	MinContextWords  int

	// Behavior
	Verbose      bool
	DebugVerbose bool
}

const (
	defaultHTTPAddr         = ":3000"
	defaultUserAgent        = "goitinerary/1.0 (+https://github.com/hyperifyio/goitinerary)"
	defaultMaxSources       = 15
	defaultContextMaxLength = 12000
	defaultMinContextWords  = 500
)

// applyDefaults fills zero fields so callers can construct a partial Config.
func (c *Config) applyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = defaultHTTPAddr
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.MaxSources <= 0 {
		c.MaxSources = defaultMaxSources
	}
	if c.ContextMaxLength <= 0 {
		c.ContextMaxLength = defaultContextMaxLength
	}
	if c.MinContextWords <= 0 {
		c.MinContextWords = defaultMinContextWords
	}
}
