package main

import (
	"context"
	"flag"
	stdlog "log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docqa/internal/config"
	"docqa/internal/document"
	"docqa/internal/domain"
	"docqa/internal/embedding/openai"
	"docqa/internal/llm"
	"docqa/internal/log"
	"docqa/internal/server"
	"docqa/internal/service"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		addr    string
		jsonLog bool
		debug   bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides config)")
	flag.BoolVar(&jsonLog, "json-log", false, "Log in JSON format")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, JSON: jsonLog})

	apiKey := cfg.APIKey()
	if apiKey == "" {
		stdlog.Fatalf("missing API key in env %s", cfg.OpenAI.APIKeyEnv)
	}
	baseURL := cfg.ResolveBaseURL(apiKey)
	timeout := time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second

	var remote domain.Embedder
	embClient, err := openai.NewClient(openai.Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   cfg.OpenAI.EmbeddingModel,
		Timeout: timeout,
	})
	if err != nil {
		logger.Warn("remote embedder unavailable, using local TF-IDF only", "error", err)
	} else {
		remote = embClient
	}

	generator, err := llm.NewGenerator(llm.Config{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       cfg.OpenAI.ChatModel,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     timeout,
	})
	if err != nil {
		stdlog.Fatalf("chat client init failed: %v", err)
	}

	fetcher := document.NewProcessor(cfg.Pipeline.MaxDocSizeMB, timeout)
	svc, err := service.New(fetcher, remote, generator, logger.With("component", "pipeline"), service.Options{
		ChunkSize:           cfg.Pipeline.ChunkSize,
		ChunkOverlap:        cfg.Pipeline.ChunkOverlap,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
		MaxResults:          cfg.Pipeline.MaxResults,
		QuestionWorkers:     cfg.Pipeline.QuestionWorkers,
		TFIDFMaxFeatures:    cfg.Pipeline.TFIDFMaxFeatures,
	})
	if err != nil {
		stdlog.Fatalf("pipeline init failed: %v", err)
	}

	authToken := cfg.AuthToken()
	if authToken == "" {
		logger.Warn("no auth token configured, API is unauthenticated", "env", cfg.Server.AuthTokenEnv)
	}

	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(svc, authToken, logger.With("component", "http"))
	if err := srv.Run(ctx, addr); err != nil {
		stdlog.Fatalf("server failed: %v", err)
	}
}
