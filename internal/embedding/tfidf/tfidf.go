// Package tfidf implements a local TF-IDF vectorizer used as the
// deterministic fallback when the remote embedding service is
// unavailable. The vocabulary is fitted once over the document's chunks
// and later query strings are transformed against that same fitted
// vocabulary; refitting per query would make scores incomparable.
package tfidf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"docqa/internal/domain"
	"docqa/internal/textutil"
)

// DefaultMaxFeatures caps the fitted vocabulary size.
const DefaultMaxFeatures = 1000

// Embedder is a TF-IDF vectorizer over unigrams and bigrams with
// English stop-words removed and the vocabulary capped at maxFeatures
// terms by document frequency.
type Embedder struct {
	maxFeatures int
	vocabulary  map[string]int
	idf         []float64
	dimension   int
	prepared    bool
}

// NewEmbedder creates an unprepared TF-IDF embedder. maxFeatures <= 0
// selects DefaultMaxFeatures.
func NewEmbedder(maxFeatures int) *Embedder {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Embedder{maxFeatures: maxFeatures, vocabulary: make(map[string]int)}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and IDF values from the corpus. It must
// be called exactly once per document before Embed.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	// Document frequency per term
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range ngrams(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return errors.New("no terms found in corpus")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	// Cap the vocabulary at the most frequent terms; alphabetical
	// tie-break keeps the fit deterministic.
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > e.maxFeatures {
		terms = terms[:e.maxFeatures]
	}
	sort.Strings(terms)

	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed transforms each text against the fitted vocabulary and returns
// L2-normalized vectors, one per input, in input order. A text sharing
// no terms with the vocabulary yields a zero vector.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if !e.prepared {
		return nil, fmt.Errorf("%w: tfidf embedder not prepared", domain.ErrEmbedding)
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = e.transform(text)
	}
	return vectors, nil
}

func (e *Embedder) transform(text string) []float64 {
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, term := range ngrams(text) {
		if idx, ok := e.vocabulary[term]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	for idx, count := range tf {
		tfv := float64(count) / float64(total)
		vec[idx] = tfv * e.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// ngrams returns the stop-word-filtered unigrams and bigrams of text.
// Bigrams are formed over the filtered token stream, matching the
// behavior of a stop-word-aware vectorizer.
func ngrams(text string) []string {
	raw := textutil.Tokenize(text)
	tokens := raw[:0]
	for _, t := range raw {
		if textutil.IsStopword(t) {
			continue
		}
		tokens = append(tokens, t)
	}
	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
