package summarizer

import (
	"strings"
	"testing"
)

func TestSummarize_SelectsHighFrequencySentences(t *testing.T) {
	text := "The grace period is thirty days. " +
		"The grace period applies to premium payment. " +
		"Completely unrelated remark about weather patterns. " +
		"Premium payment during the grace period keeps the policy active."

	s := NewFrequencySummarizer()
	got, err := s.Summarize(text, 2)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if strings.Contains(got, "weather patterns") {
		t.Fatalf("off-topic sentence selected: %q", got)
	}
	if !strings.Contains(got, "grace period") {
		t.Fatalf("dominant topic missing from summary: %q", got)
	}
}

func TestSummarize_PreservesSourceOrder(t *testing.T) {
	text := "Alpha clause covers hospitalization costs fully. " +
		"Beta clause covers hospitalization costs partially. " +
		"Gamma clause covers hospitalization costs rarely."

	s := NewFrequencySummarizer()
	got, err := s.Summarize(text, 3)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	alpha := strings.Index(got, "Alpha")
	beta := strings.Index(got, "Beta")
	gamma := strings.Index(got, "Gamma")
	if alpha < 0 || beta < 0 || gamma < 0 {
		t.Fatalf("expected all three sentences, got %q", got)
	}
	if !(alpha < beta && beta < gamma) {
		t.Fatalf("summary sentences out of source order: %q", got)
	}
}

func TestSummarize_EmptyText(t *testing.T) {
	s := NewFrequencySummarizer()
	got, err := s.Summarize("   ", 3)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty summary, got %q", got)
	}
}

func TestSummarize_FewerSentencesThanRequested(t *testing.T) {
	s := NewFrequencySummarizer()
	got, err := s.Summarize("Only one sentence here.", 5)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if got != "Only one sentence here." {
		t.Fatalf("unexpected summary %q", got)
	}
}
