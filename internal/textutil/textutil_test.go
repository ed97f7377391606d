package textutil

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Grace Period", []string{"grace", "period"}},
		{"keeps apostrophes", "doesn't cover", []string{"doesn't", "cover"}},
		{"drops digits and punctuation", "30 days, per §4!", []string{"days", "per"}},
		{"empty", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("First sentence. Second one! Third?")
	want := []string{"First sentence.", "Second one!", "Third?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Sentences = %v, want %v", got, want)
	}
}

func TestSentences_NoTerminalPunctuation(t *testing.T) {
	got := Sentences("no punctuation at all")
	if len(got) != 1 || got[0] != "no punctuation at all" {
		t.Fatalf("expected whole text as one sentence, got %v", got)
	}
	if Sentences("   ") != nil {
		t.Fatalf("expected nil for blank text")
	}
}

func TestIsStopword(t *testing.T) {
	if !IsStopword("the") {
		t.Fatalf("'the' should be a stop-word")
	}
	if IsStopword("premium") {
		t.Fatalf("'premium' should not be a stop-word")
	}
}
