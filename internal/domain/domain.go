package domain

import (
	"context"
	"errors"
)

// Chunk is a contiguous window of words from the source document.
// IDs are dense, zero-based and follow document order.
type Chunk struct {
	ID   int
	Text string
}

// RetrievedChunk is a chunk selected for a query together with its
// cosine similarity score.
type RetrievedChunk struct {
	Text    string
	Score   float64
	ChunkID int
}

// Embedder converts batches of text into numeric vectors.
// Implementations may require a preparation phase over the corpus;
// Embed must return one row per input, in input order.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorStore holds chunk vectors and supports top-k similarity search.
// Search returns the raw top-k by descending score; threshold filtering
// is the caller's concern.
type VectorStore interface {
	Init(dimension int) error
	Upsert(chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]RetrievedChunk, error)
	Clear() error
}

// AnswerGenerator produces a natural-language answer for a question
// given the retrieved context chunks.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, chunks []RetrievedChunk) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Error taxonomy. Callers branch with errors.Is.
var (
	// ErrChunkingConfig marks an invalid chunking configuration
	// (overlap >= size). Not retryable; the configuration must change.
	ErrChunkingConfig = errors.New("invalid chunking configuration")

	// ErrEmbedding marks a failed embedding operation after the remote
	// call and any configured fallback were exhausted.
	ErrEmbedding = errors.New("embedding failed")

	// ErrAnswerGeneration marks a failed or empty chat-completion
	// response for a single question.
	ErrAnswerGeneration = errors.New("answer generation failed")

	// ErrDocument marks a document that could not be fetched or parsed.
	// Without chunks there is nothing to answer, so this aborts the
	// whole request.
	ErrDocument = errors.New("document processing failed")
)
