package segment

import (
	"reflect"
	"strings"
	"testing"
)

func TestFilterDropsMalformed(t *testing.T) {
	input := []Segment{
		{Start: 0, End: 2, SourceText: "keep one"},
		{Start: 2, End: 2, SourceText: "zero length"},
		{Start: 5, End: 3, SourceText: "inverted"},
		{Start: 3, End: 4, SourceText: "   "},
		{Start: -1, End: 1, SourceText: "negative start"},
		{Start: 4, End: 6, SourceText: "keep two"},
	}
	got := Filter(input)
	if len(got) != 2 {
		t.Fatalf("Filter kept %d segments, want 2", len(got))
	}
	if got[0].SourceText != "keep one" || got[1].SourceText != "keep two" {
		t.Fatalf("Filter changed order: %+v", got)
	}
}

func TestTextPrefersTranslation(t *testing.T) {
	seg := Segment{SourceText: "hola", TranslatedText: "hello"}
	if seg.Text() != "hello" {
		t.Fatalf("Text = %q", seg.Text())
	}
	seg.TranslatedText = "  "
	if seg.Text() != "hola" {
		t.Fatalf("Text fallback = %q", seg.Text())
	}
}

func TestCaptionTextNeverFallsBack(t *testing.T) {
	seg := Segment{SourceText: "hola", TranslatedText: "hello"}
	if seg.CaptionText() != "hello" {
		t.Fatalf("CaptionText = %q", seg.CaptionText())
	}
	seg.TranslatedText = "  "
	if got := strings.TrimSpace(seg.CaptionText()); got != "" {
		t.Fatalf("blank translation must stay blank for captions, got %q", got)
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  line one\n\tline   two  ")
	if got != "line one line two" {
		t.Fatalf("CleanText = %q", got)
	}
	if CleanText(" \n\t ") != "" {
		t.Fatal("whitespace-only input should clean to empty")
	}
}

func TestWrapTextGreedyPacking(t *testing.T) {
	got := WrapText("the quick brown fox jumps over the lazy dog", 15)
	want := []string{"the quick brown", "fox jumps over", "the lazy dog"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("WrapText = %v, want %v", got, want)
	}
}

func TestWrapTextNeverBreaksWords(t *testing.T) {
	long := strings.Repeat("x", 60)
	got := WrapText("a "+long+" b", 20)
	if len(got) != 3 {
		t.Fatalf("lines = %v", got)
	}
	if got[1] != long {
		t.Fatalf("long word was broken: %q", got[1])
	}
}

func TestWrapTextEmpty(t *testing.T) {
	if got := WrapText("   ", 40); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
