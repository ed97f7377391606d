// Package memory provides the per-request in-memory similarity index:
// a dense matrix searched by brute-force dot product. Rows are
// L2-normalized on insert so dot product equals cosine similarity.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"docqa/internal/domain"
)

// Store is an in-memory vector store rebuilt from scratch per document.
// There is no delete or update operation.
type Store struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	chunks    []domain.Chunk
}

// NewStore returns an empty store; Init must be called before Upsert.
func NewStore() *Store { return &Store{} }

// Init sets the vector dimension and drops any existing contents.
func (s *Store) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.chunks = nil
	return nil
}

// Upsert appends chunks with their vectors. Vectors are copied and
// L2-normalized; zero vectors are stored as-is and never match.
func (s *Store) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i := range chunks {
		s.chunks = append(s.chunks, chunks[i])
		s.vectors = append(s.vectors, normalize(vectors[i]))
	}
	return nil
}

// Search returns the raw top-k chunks by descending cosine similarity.
// Ties are broken by ascending chunk ID: scoring preserves insertion
// order and the sort is stable, so no extra bookkeeping is needed.
// Threshold filtering is the caller's concern.
func (s *Store) Search(_ context.Context, vector []float64, topK int) ([]domain.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		return nil, nil
	}
	query := normalize(vector)

	results := make([]domain.RetrievedChunk, len(s.vectors))
	for i := range s.vectors {
		results[i] = domain.RetrievedChunk{
			Text:    s.chunks[i].Text,
			Score:   dot(s.vectors[i], query),
			ChunkID: s.chunks[i].ID,
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Clear drops all stored chunks and vectors.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.chunks = nil
	return nil
}

// Len returns the number of stored vectors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
