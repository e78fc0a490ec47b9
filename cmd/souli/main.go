package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/souli/internal/anthropic"
	"github.com/MikeSquared-Agency/souli/internal/api"
	"github.com/MikeSquared-Agency/souli/internal/config"
	"github.com/MikeSquared-Agency/souli/internal/embedder"
	"github.com/MikeSquared-Agency/souli/internal/extractor"
	"github.com/MikeSquared-Agency/souli/internal/hermes"
	"github.com/MikeSquared-Agency/souli/internal/index"
	"github.com/MikeSquared-Agency/souli/internal/ingest"
	"github.com/MikeSquared-Agency/souli/internal/llm"
	"github.com/MikeSquared-Agency/souli/internal/metrics"
	"github.com/MikeSquared-Agency/souli/internal/ollama"
	"github.com/MikeSquared-Agency/souli/internal/store"
	"github.com/MikeSquared-Agency/souli/internal/transcript"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("souli starting", "port", cfg.Port, "llm_type", cfg.LLMType)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Model backend
	model, modelName, err := buildModel(cfg)
	if err != nil {
		slog.Error("failed to configure model", "error", err)
		os.Exit(1)
	}
	guarded := llm.NewBreaker(cfg.LLMType, model, slog.Default())
	slog.Info("model client ready", "backend", cfg.LLMType, "model", modelName)

	collector := metrics.NewCollector("souli")

	ext := extractor.New(guarded, slog.Default(),
		extractor.WithMaxChars(cfg.MaxTranscriptChars),
		extractor.WithMetrics(collector),
	)
	fetcher := transcript.NewFetcher(cfg.TranscriptBaseURL, cfg.TranscriptLanguages, slog.Default())

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Embeddings
	emb, err := embedder.NewONNX(embedder.ONNXConfig{
		ModelPath:     cfg.EmbedModelPath,
		TokenizerPath: cfg.EmbedTokenizerPath,
		LibraryPath:   cfg.ONNXRuntimeLibPath,
		Dim:           cfg.EmbedDim,
	}, slog.Default())
	if err != nil {
		slog.Error("failed to load embedding model", "error", err)
		os.Exit(1)
	}
	defer emb.Close()
	slog.Info("embedder ready", "model", cfg.EmbedModelPath, "dim", emb.Dim())

	ix := index.New(db, emb, cfg.Collection, slog.Default())
	if err := ix.EnsureCollection(ctx); err != nil {
		slog.Warn("collection not ready, will retry on first upsert", "collection", cfg.Collection, "error", err)
	}

	pipeline := ingest.NewPipeline(fetcher, ext, slog.Default())
	runnerOpts := []ingest.Option{
		ingest.WithWorkers(cfg.IngestWorkers),
		ingest.WithMetrics(collector),
	}

	// NATS/Hermes (optional)
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		runnerOpts = append(runnerOpts, ingest.WithPublisher(hermesClient))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, running without events")
	}

	runner := ingest.NewRunner(pipeline, ix, slog.Default(), runnerOpts...)

	if hermesClient != nil {
		if err := hermesClient.QueueSubscribe(hermes.SubjectIngestRequested, runner.HandleIngestRequested); err != nil {
			slog.Error("failed to subscribe to ingest requests", "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	status := api.Status{
		LLMType:    cfg.LLMType,
		Model:      modelName,
		Collection: cfg.Collection,
		Circuit:    guarded,
	}
	if hermesClient != nil {
		status.Events = hermesClient
	}
	srv := api.NewServer(cfg.Port, runner, ix, status, collector.Handler(), slog.Default())
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	if hermesClient != nil {
		if err := hermesClient.Publish(hermes.SubjectRegistered, map[string]any{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"port":       cfg.Port,
			"collection": cfg.Collection,
			"llm_type":   cfg.LLMType,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("souli ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	cancel()
	slog.Info("souli stopped")
}

func buildModel(cfg config.Config) (llm.Model, string, error) {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	switch cfg.LLMType {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, "", errors.New("ANTHROPIC_API_KEY is required when LLM_TYPE=anthropic")
		}
		c := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		c.SetTimeout(timeout)
		c.SetMaxTokens(cfg.AnthropicMaxTokens)
		return c, cfg.AnthropicModel, nil
	case "ollama", "":
		return ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaTemperature, timeout), cfg.OllamaModel, nil
	default:
		return nil, "", errors.New("unsupported LLM_TYPE " + cfg.LLMType + ", use ollama or anthropic")
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
