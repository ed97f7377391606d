// Package retrieval selects the chunks most relevant to a question.
// The similarity threshold and its relaxation live here; the vector
// store always returns the raw top-k.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"docqa/internal/domain"
	"docqa/internal/textutil"
)

// Retriever embeds a question and ranks document chunks against it.
type Retriever struct {
	embedder   domain.Embedder
	store      domain.VectorStore
	chunks     []domain.Chunk
	threshold  float64
	maxResults int
}

// New creates a retriever over an already-built index. chunks is the
// same sequence the index was built from, kept for the lexical
// fallback; it is read-only from here on.
func New(embedder domain.Embedder, store domain.VectorStore, chunks []domain.Chunk, threshold float64, maxResults int) *Retriever {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Retriever{
		embedder:   embedder,
		store:      store,
		chunks:     chunks,
		threshold:  threshold,
		maxResults: maxResults,
	}
}

// Retrieve returns the chunks most relevant to the question, sorted by
// descending score. Chunks scoring below the threshold are dropped; if
// none pass, the top min(3, n) are returned unconditionally so every
// question gets some context. An all-zero query vector (every query
// term out of vocabulary under TF-IDF) falls back to lexical ranking.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.RetrievedChunk, error) {
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", domain.ErrEmbedding, len(vectors))
	}
	query := vectors[0]

	if isZero(query) {
		return r.lexical(question), nil
	}

	k := r.maxResults
	if k > len(r.chunks) {
		k = len(r.chunks)
	}
	ranked, err := r.store.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	kept := ranked[:0:0]
	for _, rc := range ranked {
		if rc.Score >= r.threshold {
			kept = append(kept, rc)
		}
	}
	if len(kept) == 0 {
		// Nothing cleared the threshold; relax to the top 3.
		relaxed := 3
		if relaxed > len(ranked) {
			relaxed = len(ranked)
		}
		kept = ranked[:relaxed]
	}
	return kept, nil
}

// lexical ranks chunks by token-overlap with the question using the
// Ochiai coefficient |A∩B| / sqrt(|A||B|).
func (r *Retriever) lexical(question string) []domain.RetrievedChunk {
	qset := textutil.TokenSet(question)
	results := make([]domain.RetrievedChunk, len(r.chunks))
	for i, ch := range r.chunks {
		results[i] = domain.RetrievedChunk{
			Text:    ch.Text,
			Score:   ochiai(qset, ch.Text),
			ChunkID: ch.ID,
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	k := 3
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

func ochiai(qset map[string]struct{}, text string) float64 {
	tset := textutil.TokenSet(text)
	if len(qset) == 0 || len(tset) == 0 {
		return 0
	}
	inter := 0
	for t := range tset {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / (math.Sqrt(float64(len(qset))) * math.Sqrt(float64(len(tset))))
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
