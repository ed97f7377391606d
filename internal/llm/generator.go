// Package llm generates answers by submitting the question and the
// retrieved context to an OpenAI-compatible chat-completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docqa/internal/domain"
)

const systemPrompt = `You are an expert AI assistant specializing in document analysis for insurance, legal, HR, and compliance domains.

Your task is to provide accurate, precise, and well-explained answers based on the provided document context.

Key requirements:
1. Answer questions based ONLY on the provided context
2. Be precise and specific with details like numbers, dates, percentages, and conditions
3. If the context doesn't contain enough information, clearly state that
4. Provide clear, professional explanations
5. Use the exact terminology from the documents
6. Do not make assumptions beyond what's explicitly stated in the context`

// Generator calls a chat-completion model to answer questions from
// retrieved context.
type Generator struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// Config configures the chat-completions client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// NewGenerator creates an answer generator using the provided configuration.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chat API key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "openai/gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Generator{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: t},
	}, nil
}

// Generate answers the question using only the retrieved chunks. It
// retries once with backoff on transport errors, 429 and 5xx. A blank
// or missing completion is an answer-generation error, never an empty
// string.
func (g *Generator) Generate(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	prompt := buildPrompt(question, FormatContext(chunks))

	body, err := json.Marshal(map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  g.maxTokens,
		"temperature": g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrAnswerGeneration, err)
	}

	var lastErr error
	// One bounded retry on transient failures.
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrAnswerGeneration, ctx.Err())
			case <-time.After(500 * time.Millisecond):
			}
		}
		answer, retryable, err := g.complete(ctx, body)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", domain.ErrAnswerGeneration, lastErr)
}

func (g *Generator) complete(ctx context.Context, body []byte) (answer string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("chat completion failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("chat completion failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", false, fmt.Errorf("parse chat response: %v", err)
	}
	if len(out.Choices) == 0 {
		return "", false, fmt.Errorf("chat response has no choices")
	}
	answer = strings.TrimSpace(out.Choices[0].Message.Content)
	if answer == "" {
		return "", false, fmt.Errorf("chat response content is empty")
	}
	return answer, false, nil
}

// FormatContext concatenates the chunk texts in the order received,
// labeling each with its relevance score for traceability.
func FormatContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return "No relevant context found."
	}
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "Context %d (Relevance: %.3f):\n%s\n\n", i+1, c.Score, c.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildPrompt(question, context string) string {
	return fmt.Sprintf(`Based on the following document context, please answer the question accurately and completely.

DOCUMENT CONTEXT:
%s

QUESTION:
%s

INSTRUCTIONS:
- Answer based ONLY on the provided context
- Be specific with details like numbers, dates, conditions, and requirements
- If the context doesn't provide enough information to answer completely, state that clearly
- Use exact terminology from the documents

ANSWER:`, context, question)
}
