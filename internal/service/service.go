// Package service orchestrates the question-answering pipeline: resolve
// document text, chunk, embed, index, then retrieve and answer each
// question.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docqa/internal/chunker"
	"docqa/internal/document"
	"docqa/internal/domain"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/log"
	"docqa/internal/retrieval"
	"docqa/internal/vectorstore/memory"
)

// Fetcher resolves a document URL to extracted text.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Options configures a Service.
type Options struct {
	ChunkSize           int
	ChunkOverlap        int
	SimilarityThreshold float64
	MaxResults          int
	QuestionWorkers     int
	TFIDFMaxFeatures    int

	// NewStore builds the vector store backing a session. Defaults to
	// the in-memory store; the HTTP path always uses the default since
	// its index must not outlive the request.
	NewStore func() domain.VectorStore
}

// Service answers question batches against a single document. The
// remote embedder may be nil, in which case every session uses the
// local TF-IDF vectorizer directly.
type Service struct {
	chunker   *chunker.WordChunker
	fetcher   Fetcher
	remote    domain.Embedder
	generator domain.AnswerGenerator
	logger    log.Logger
	opts      Options
}

// New validates the chunking configuration and assembles the pipeline.
func New(fetcher Fetcher, remote domain.Embedder, generator domain.AnswerGenerator, logger log.Logger, opts Options) (*Service, error) {
	ck, err := chunker.NewWordChunker(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if opts.QuestionWorkers <= 0 {
		opts.QuestionWorkers = 4
	}
	if opts.NewStore == nil {
		opts.NewStore = func() domain.VectorStore { return memory.NewStore() }
	}
	return &Service{
		chunker:   ck,
		fetcher:   fetcher,
		remote:    remote,
		generator: generator,
		logger:    logger,
		opts:      opts,
	}, nil
}

// Session holds the read-only chunk and vector state built from one
// document. It is safe to share across concurrently answered questions.
type Session struct {
	retriever *retrieval.Retriever
	generator domain.AnswerGenerator
	chunks    []domain.Chunk
	embedder  string
}

// ChunkCount returns the number of indexed chunks.
func (s *Session) ChunkCount() int { return len(s.chunks) }

// EmbedderName reports which embedder produced the session's vectors.
func (s *Session) EmbedderName() string { return s.embedder }

// Ingest chunks the text, embeds the chunks and builds the similarity
// index. The remote embedder is tried first; on failure the session
// falls back to a TF-IDF vectorizer fitted on the same chunks. Both
// failing aborts with an embedding error; noise vectors are never
// substituted.
func (s *Service) Ingest(ctx context.Context, text string) (*Session, error) {
	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document contains no text to index", domain.ErrDocument)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	s.logger.Info("chunked document", "chunks", len(chunks))

	embedder := s.remote
	var vectors [][]float64
	if embedder != nil {
		var err error
		vectors, err = embedder.Embed(ctx, texts)
		if err != nil {
			s.logger.Warn("remote embedding failed, falling back to tfidf", "error", err)
			embedder = nil
		}
	}
	if embedder == nil {
		fb := tfidf.NewEmbedder(s.opts.TFIDFMaxFeatures)
		if err := fb.Prepare(texts); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
		}
		var err error
		vectors, err = fb.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		embedder = fb
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks))
	}

	dimension := embedder.Dimension()
	if dimension == 0 {
		dimension = len(vectors[0])
	}
	store := s.opts.NewStore()
	if err := store.Init(dimension); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	if err := store.Upsert(chunks, vectors); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}
	s.logger.Info("built similarity index", "embedder", embedder.Name(), "dimension", dimension)

	return &Session{
		retriever: retrieval.New(embedder, store, chunks, s.opts.SimilarityThreshold, s.opts.MaxResults),
		generator: s.generator,
		chunks:    chunks,
		embedder:  embedder.Name(),
	}, nil
}

// Answer retrieves context for one question and generates its answer.
func (sess *Session) Answer(ctx context.Context, question string) (string, []domain.RetrievedChunk, error) {
	relevant, err := sess.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", nil, err
	}
	answer, err := sess.generator.Generate(ctx, question, relevant)
	if err != nil {
		return "", relevant, err
	}
	return answer, relevant, nil
}

// Run processes one request: resolve the document, build the index once
// and answer every question. A failure on one question becomes an error
// string in its slot while sibling questions proceed; the output always
// has one entry per question, in input order. Document and indexing
// failures abort the whole run.
func (s *Service) Run(ctx context.Context, doc string, questions []string) ([]string, error) {
	text, err := s.resolveDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	sess, err := s.Ingest(ctx, text)
	if err != nil {
		return nil, err
	}

	answers := make([]string, len(questions))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.opts.QuestionWorkers
	if workers > len(questions) {
		workers = len(questions)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				answer, _, err := sess.Answer(ctx, questions[i])
				if err != nil {
					s.logger.Error("failed to answer question", "index", i, "error", err)
					answers[i] = fmt.Sprintf("Error processing question: %v", err)
					continue
				}
				answers[i] = answer
			}
		}()
	}
	for i := range questions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return answers, nil
}

// resolveDocument fetches URL inputs and cleans inline text inputs.
func (s *Service) resolveDocument(ctx context.Context, doc string) (string, error) {
	trimmed := strings.TrimSpace(doc)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty document", domain.ErrDocument)
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		if s.fetcher == nil {
			return "", fmt.Errorf("%w: no document fetcher configured", domain.ErrDocument)
		}
		s.logger.Info("fetching document", "url", trimmed)
		return s.fetcher.FetchText(ctx, trimmed)
	}
	cleaned := document.CleanText(trimmed)
	if cleaned == "" {
		return "", fmt.Errorf("%w: document contains no usable text", domain.ErrDocument)
	}
	return cleaned, nil
}
