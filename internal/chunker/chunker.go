package chunker

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// WordChunker splits text into overlapping fixed-size word windows.
type WordChunker struct {
	size    int
	overlap int
}

// NewWordChunker creates a chunker producing windows of size words,
// advancing by size-overlap words per step. overlap >= size would make
// the stride non-positive and is rejected as a configuration error.
func NewWordChunker(size, overlap int) (*WordChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrChunkingConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap %d must not be negative", domain.ErrChunkingConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrChunkingConfig, overlap, size)
	}
	return &WordChunker{size: size, overlap: overlap}, nil
}

// Chunk splits text on whitespace and returns consecutive word windows
// with dense zero-based IDs in document order. Empty text yields no
// chunks; text shorter than one window yields exactly one chunk. This
// never fails on input content.
func (c *WordChunker) Chunk(text string) []domain.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk
	for i := 0; i < len(words); i += step {
		end := i + c.size
		if end > len(words) {
			end = len(words)
		}
		piece := strings.TrimSpace(strings.Join(words[i:end], " "))
		if piece == "" {
			// only possible for a degenerate tail window
			break
		}
		chunks = append(chunks, domain.Chunk{ID: len(chunks), Text: piece})
		if end == len(words) {
			break
		}
	}
	return chunks
}
