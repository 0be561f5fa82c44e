package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/geongi-im/news-tracker/internal/ai"
	"github.com/geongi-im/news-tracker/internal/config"
	"github.com/geongi-im/news-tracker/internal/dedup"
	"github.com/geongi-im/news-tracker/internal/logger"
	"github.com/geongi-im/news-tracker/internal/metrics"
	"github.com/geongi-im/news-tracker/internal/pipeline"
	"github.com/geongi-im/news-tracker/internal/prompt"
	"github.com/geongi-im/news-tracker/internal/ratelimit"
	"github.com/geongi-im/news-tracker/internal/retry"
	"github.com/geongi-im/news-tracker/internal/rss"
	"github.com/geongi-im/news-tracker/internal/scrape"
	"github.com/geongi-im/news-tracker/internal/storage"
	"github.com/geongi-im/news-tracker/internal/telegram"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		fatal(cfg, fmt.Errorf("configuration error: %w", err))
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		fatal(cfg, err)
	}
	defer closeStore()

	provider, closeProvider, err := buildProvider(ctx, cfg)
	if err != nil {
		fatal(cfg, err)
	}
	defer closeProvider()

	classifier := ai.NewClient(provider, prompt.NewBuilder(cfg.PromptDir), ai.Options{
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
		SuccessDelay: cfg.SuccessDelay,
	}, logger.With("ai"))

	p := pipeline.New(
		store,
		rss.NewFetcher(),
		classifier,
		dedup.NewChecker(store, logger.With("dedup")),
		pipeline.Settings{
			Template:       cfg.PromptTemplate,
			ScoreThreshold: cfg.ScoreThreshold,
			Window:         cfg.NewsMaxAge,
			PhotoMarker:    cfg.PhotoMarker,
		},
		logger.With("pipeline"),
	)
	if cfg.MaxAIRequests > 0 {
		p.WithLimiter(ratelimit.New(cfg.MaxAIRequests))
	}
	if cfg.ScrapeFullContent {
		p.WithExtractor(scrape.NewExtractor(cfg.ScrapeTimeout))
	}

	logger.Info("news tracker starting",
		"provider", cfg.AIProvider, "backend", cfg.StorageBackend)

	if err := p.Run(ctx); err != nil {
		metrics.Global.SetError(err.Error())
		fatal(cfg, fmt.Errorf("ingestion run failed: %w", err))
	}

	logger.Info("news tracker finished")
}

func buildStore(cfg *config.Config) (storage.Store, func(), error) {
	retryCfg := retry.Config{
		MaxAttempts: cfg.StorageRetryAttempts,
		Delay:       cfg.StorageRetryDelay,
		Multiplier:  2,
	}

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pg, err := storage.OpenPostgres(cfg.DatabaseURL, logger.With("storage"))
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		api := storage.NewAPIClient(cfg.APIBaseURL, retryCfg, logger.With("storage"))
		return api, func() {}, nil
	}
}

func buildProvider(ctx context.Context, cfg *config.Config) (ai.Provider, func(), error) {
	switch cfg.AIProvider {
	case config.ProviderDeepSeek:
		p := ai.NewDeepSeekProvider(cfg.DeepSeekAPIKey, cfg.DeepSeekBaseURL, cfg.DeepSeekModel)
		return p, func() {}, nil
	default:
		p, err := ai.NewGeminiProvider(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("create gemini provider: %w", err)
		}
		return p, p.Close, nil
	}
}

// fatal logs the error, pings the operator channel when configured, and
// exits. Used only for the configuration/top-level error class.
func fatal(cfg *config.Config, err error) {
	logger.Error("fatal", "error", err)
	if cfg != nil && cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		msg := "❌ <b>news-tracker failed</b>\n" + err.Error()
		if sendErr := telegram.SendMessage(cfg.TelegramToken, cfg.TelegramChatID, msg); sendErr != nil {
			logger.Error("operator notification failed", "error", sendErr)
		}
	}
	os.Exit(1)
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("monitoring server listening", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server stopped", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func metricsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
