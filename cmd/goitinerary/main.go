package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goitinerary/internal/app"
	"github.com/hyperifyio/goitinerary/internal/httpapi"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Best effort: a missing .env file is fine in production.
	_ = godotenv.Load()

	var (
		configPath   string
		httpAddr     string
		serpURL      string
		serpKey      string
		searchFile   string
		llmBaseURL   string
		llmModel     string
		llmKey       string
		userAgent    string
		fetchTimeout time.Duration
		maxSources   int
		ctxMaxLen    int
		ctxMinWords  int
		verbose      bool
		debugVerbose bool
	)

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "Path to YAML or JSON config file")
	flag.StringVar(&httpAddr, "http.addr", "", "HTTP listen address (default :3000)")
	flag.StringVar(&serpURL, "serp.url", "", "SerpAPI-compatible base URL")
	flag.StringVar(&serpKey, "serp.key", "", "SerpAPI key")
	flag.StringVar(&searchFile, "search.file", "", "Path to JSON file for offline file-based search provider")
	flag.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL, e.g. https://openrouter.ai/api/v1")
	flag.StringVar(&llmModel, "llm.model", "", "Model name")
	flag.StringVar(&llmKey, "llm.key", "", "API key for the OpenAI-compatible server")
	flag.StringVar(&userAgent, "scrape.ua", "", "Custom User-Agent for outbound fetches")
	flag.DurationVar(&fetchTimeout, "scrape.timeout", 0, "Per-fetch timeout (default 10s)")
	flag.IntVar(&maxSources, "context.maxSources", 0, "Maximum sources scraped per request (default 15)")
	flag.IntVar(&ctxMaxLen, "context.maxLength", 0, "Maximum prepared context length in characters (default 12000)")
	flag.IntVar(&ctxMinWords, "context.minWords", 0, "Word floor below which basic destination info is added (default 500)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&debugVerbose, "debug-verbose", false, "Debug-level logging including per-strategy scrape detail")
	flag.Parse()

	cfg := app.Config{
		HTTPAddr:         httpAddr,
		SerpBaseURL:      serpURL,
		SerpAPIKey:       serpKey,
		FileSearchPath:   searchFile,
		LLMBaseURL:       llmBaseURL,
		LLMModel:         llmModel,
		LLMAPIKey:        llmKey,
		UserAgent:        userAgent,
		FetchTimeout:     fetchTimeout,
		MaxSources:       maxSources,
		ContextMaxLength: ctxMaxLen,
		MinContextWords:  ctxMinWords,
		Verbose:          verbose,
		DebugVerbose:     debugVerbose,
	}

	// Precedence: flags > env > file. Both overlays only fill fields that
	// are still unset, so env must run before the file overlay.
	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load config file")
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	switch {
	case cfg.DebugVerbose:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case cfg.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	a := app.New(cfg)
	srv := httpapi.New(a)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":3000"
	}
	log.Info().Str("addr", addr).Msg("starting goitinerary")
	if err := srv.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
