package memory

import (
	"context"
	"math"
	"testing"

	"docqa/internal/domain"
)

func seeded(t *testing.T, vectors [][]float64) *Store {
	t.Helper()
	s := NewStore()
	if err := s.Init(len(vectors[0])); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	chunks := make([]domain.Chunk, len(vectors))
	for i := range vectors {
		chunks[i] = domain.Chunk{ID: i, Text: "chunk"}
	}
	if err := s.Upsert(chunks, vectors); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	return s
}

func TestSearch_RanksByCosine(t *testing.T) {
	s := seeded(t, [][]float64{
		{1, 0},  // orthogonal to query
		{1, 1},  // 45 degrees
		{0, 2},  // parallel, magnitude must not matter
		{0, -1}, // opposite
	})

	got, err := s.Search(context.Background(), []float64{0, 1}, 4)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	wantOrder := []int{2, 1, 0, 3}
	for i, want := range wantOrder {
		if got[i].ChunkID != want {
			t.Fatalf("position %d: got chunk %d, want %d (results %+v)", i, got[i].ChunkID, want, got)
		}
	}
	if math.Abs(got[0].Score-1.0) > 1e-9 {
		t.Fatalf("parallel vector should score 1.0, got %f", got[0].Score)
	}
	for _, r := range got {
		if r.Score < -1.0-1e-9 || r.Score > 1.0+1e-9 {
			t.Fatalf("score %f out of [-1, 1]", r.Score)
		}
	}
}

func TestSearch_TiesBreakByChunkID(t *testing.T) {
	s := seeded(t, [][]float64{
		{0, 1},
		{0, 1},
		{0, 1},
	})

	got, err := s.Search(context.Background(), []float64{0, 1}, 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for i, r := range got {
		if r.ChunkID != i {
			t.Fatalf("tie at position %d resolved to chunk %d", i, r.ChunkID)
		}
	}
}

func TestSearch_TopKLargerThanStore(t *testing.T) {
	s := seeded(t, [][]float64{{1, 0}, {0, 1}})

	got, err := s.Search(context.Background(), []float64{1, 0}, 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestSearch_ZeroTopK(t *testing.T) {
	s := seeded(t, [][]float64{{1, 0}})
	got, err := s.Search(context.Background(), []float64{1, 0}, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no results for topK=0, got %v", got)
	}
}

func TestUpsert_RejectsDimensionMismatch(t *testing.T) {
	s := NewStore()
	if err := s.Init(3); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	err := s.Upsert([]domain.Chunk{{ID: 0}}, [][]float64{{1, 0}})
	if err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestUpsert_RejectsLengthMismatch(t *testing.T) {
	s := NewStore()
	if err := s.Init(2); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	err := s.Upsert([]domain.Chunk{{ID: 0}, {ID: 1}}, [][]float64{{1, 0}})
	if err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestInit_DropsContents(t *testing.T) {
	s := seeded(t, [][]float64{{1, 0}})
	if err := s.Init(2); err != nil {
		t.Fatalf("re-init failed: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store after re-init, got %d vectors", s.Len())
	}
}

func TestInit_RejectsBadDimension(t *testing.T) {
	s := NewStore()
	if err := s.Init(0); err == nil {
		t.Fatalf("expected error for zero dimension")
	}
}

// A stored zero vector must never outrank a real match.
func TestSearch_ZeroVectorScoresZero(t *testing.T) {
	s := seeded(t, [][]float64{
		{0, 0},
		{0, 1},
	})
	got, err := s.Search(context.Background(), []float64{0, 1}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if got[0].ChunkID != 1 {
		t.Fatalf("expected real match first, got chunk %d", got[0].ChunkID)
	}
	if got[1].Score != 0 {
		t.Fatalf("zero vector should score 0, got %f", got[1].Score)
	}
}
