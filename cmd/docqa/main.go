package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docqa/internal/config"
	"docqa/internal/document"
	"docqa/internal/domain"
	"docqa/internal/embedding/openai"
	"docqa/internal/llm"
	"docqa/internal/log"
	"docqa/internal/service"
	"docqa/internal/summarizer"
	"docqa/internal/tui"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: docqa [--config=config.yaml] <file-or-url> [file2 ...]")
		os.Exit(1)
	}

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

	apiKey := cfg.APIKey()
	if apiKey == "" {
		stdlog.Fatalf("missing API key in env %s", cfg.OpenAI.APIKeyEnv)
	}
	baseURL := cfg.ResolveBaseURL(apiKey)
	timeout := time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second

	var remote domain.Embedder
	if embClient, err := openai.NewClient(openai.Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   cfg.OpenAI.EmbeddingModel,
		Timeout: timeout,
	}); err == nil {
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

	newStore := func() domain.VectorStore { return memory.NewStore() }
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			stdlog.Fatalf("qdrant config missing")
		}
		qcfg := qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}
		newStore = func() domain.VectorStore { return qdrant.NewStore(qcfg) }
	}

	processor := document.NewProcessor(cfg.Pipeline.MaxDocSizeMB, timeout)
	svc, err := service.New(processor, remote, generator, log.New(log.Config{Level: slog.LevelWarn}), service.Options{
		ChunkSize:           cfg.Pipeline.ChunkSize,
		ChunkOverlap:        cfg.Pipeline.ChunkOverlap,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
		MaxResults:          cfg.Pipeline.MaxResults,
		QuestionWorkers:     cfg.Pipeline.QuestionWorkers,
		TFIDFMaxFeatures:    cfg.Pipeline.TFIDFMaxFeatures,
		NewStore:            newStore,
	})
	if err != nil {
		stdlog.Fatalf("pipeline init failed: %v", err)
	}

	ctx := context.Background()
	text, err := loadInputs(ctx, processor, inputs)
	if err != nil {
		stdlog.Fatalf("failed to load documents: %v", err)
	}

	sess, err := svc.Ingest(ctx, text)
	if err != nil {
		stdlog.Fatalf("ingest failed: %v", err)
	}

	summary, err := summarizer.NewFrequencySummarizer().Summarize(text, cfg.Summarizer.MaxSentences)
	if err != nil {
		summary = ""
	}

	m := tui.New(sess, summary)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		stdlog.Fatal(err)
	}
}

// loadInputs reads each argument as a URL or local file and joins the
// extracted texts into one document.
func loadInputs(ctx context.Context, processor *document.Processor, inputs []string) (string, error) {
	var parts []string
	for _, in := range inputs {
		if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
			text, err := processor.FetchText(ctx, in)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
			continue
		}
		content, err := os.ReadFile(in)
		if err != nil {
			return "", err
		}
		text, err := processor.Extract(in, content)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}
