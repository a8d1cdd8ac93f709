package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dubber/internal/segment"
)

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func testSegments(texts ...string) []segment.Segment {
	segs := make([]segment.Segment, len(texts))
	for i, text := range texts {
		segs[i] = segment.Segment{Start: float64(i), End: float64(i) + 1, SourceText: text}
	}
	return segs
}

func TestTranslateSegmentsFillsBatchInOrder(t *testing.T) {
	var gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotUser = req.Messages[1].Content
		fmt.Fprint(w, completionBody("hola\n"+BatchDelimiter+"\nmundo"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	segs := testSegments("hello", "world")
	if err := client.TranslateSegments(context.Background(), segs, "en", "es"); err != nil {
		t.Fatalf("TranslateSegments: %v", err)
	}
	if segs[0].TranslatedText != "hola" || segs[1].TranslatedText != "mundo" {
		t.Fatalf("translations out of order: %q, %q", segs[0].TranslatedText, segs[1].TranslatedText)
	}
	if !strings.Contains(gotUser, BatchDelimiter) {
		t.Fatalf("request did not delimit segments: %q", gotUser)
	}
}

func TestTranslateSegmentsRejectsDelimiterMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionBody("only one answer"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	segs := testSegments("hello", "world")
	err := client.TranslateSegments(context.Background(), segs, "en", "es")
	if err == nil || !strings.Contains(err.Error(), "delimiter mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestTranslateSegmentsFallsBackToSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, FallbackToSource: true})
	segs := testSegments("hello", "world")
	if err := client.TranslateSegments(context.Background(), segs, "en", "es"); err != nil {
		t.Fatalf("fallback should swallow the failure: %v", err)
	}
	if segs[0].TranslatedText != "hello" || segs[1].TranslatedText != "world" {
		t.Fatalf("source text not copied: %+v", segs)
	}
}

func TestTranslateSegmentsRetriesOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, completionBody("hola"))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{APIKey: "key", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	segs := testSegments("hello")
	if err := client.TranslateSegments(context.Background(), segs, "en", "es"); err != nil {
		t.Fatalf("TranslateSegments: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
	if len(slept) != 1 {
		t.Fatalf("expected one backoff sleep, got %v", slept)
	}
}

func TestTranslateSegmentsDoesNotRetryClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	err := client.TranslateSegments(context.Background(), testSegments("hello"), "en", "es")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls)
	}
}

func TestTranslateSegmentsRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	err := client.TranslateSegments(context.Background(), testSegments("hello"), "en", "es")
	if err == nil {
		t.Fatal("expected configuration error without api key")
	}
}

func TestTranslateSegmentsBatches(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		count := strings.Count(req.Messages[1].Content, BatchDelimiter) + 1
		parts := make([]string, count)
		for i := range parts {
			parts[i] = fmt.Sprintf("t%d", i)
		}
		fmt.Fprint(w, completionBody(strings.Join(parts, BatchDelimiter)))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL}, WithBatchSize(2))
	segs := testSegments("a", "b", "c")
	if err := client.TranslateSegments(context.Background(), segs, "en", "es"); err != nil {
		t.Fatalf("TranslateSegments: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 batched calls for 3 segments, got %d", calls)
	}
	for i, seg := range segs {
		if seg.TranslatedText == "" {
			t.Fatalf("segment %d left untranslated", i)
		}
	}
}

func TestRateLimiterPacesCalls(t *testing.T) {
	rl := NewRateLimiter(60) // one per second
	base := time.Unix(0, 0)
	clock := base
	var waits []time.Duration
	rl.now = func() time.Time { return clock }
	rl.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(waits) != 0 {
		t.Fatalf("first call should not wait: %v", waits)
	}
	clock = base.Add(200 * time.Millisecond)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(waits) != 1 || waits[0] != 800*time.Millisecond {
		t.Fatalf("expected 800ms pacing wait, got %v", waits)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0)
	for i := 0; i < 3; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
}
