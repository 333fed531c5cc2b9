package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/kurabe/internal/config"
)

func openaiTestConfig(t *testing.T, baseURL string) *config.EmbeddingConfig {
	t.Helper()
	t.Setenv("KURABE_TEST_API_KEY", "test-key")
	return &config.EmbeddingConfig{
		Provider:   "openai",
		Model:      "text-embedding-3-small",
		Dimensions: 4,
		CacheSize:  10,
		BaseURL:    baseURL,
		APIKeyEnv:  "KURABE_TEST_API_KEY",
	}
}

// fakeEmbeddings serves an OpenAI-compatible /embeddings endpoint returning
// a fixed vector per input, with indices deliberately reversed.
func fakeEmbeddings(t *testing.T, calls *atomic.Int32) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		var data []datum
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, datum{Index: i, Embedding: []float32{float32(i), 1, 0, 0}})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
}

func TestOpenAIEmbedderRequiresKey(t *testing.T) {
	t.Setenv("KURABE_EMPTY_KEY", "")
	_, err := NewOpenAIEmbedder(&config.EmbeddingConfig{APIKeyEnv: "KURABE_EMPTY_KEY"})
	if err == nil {
		t.Fatal("missing key should fail")
	}
}

func TestOpenAIEmbedBatchOrdersByIndex(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(fakeEmbeddings(t, &calls))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(openaiTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	defer e.Close()

	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors", len(vectors))
	}
	for i, vec := range vectors {
		if vec[0] != float32(i) {
			t.Errorf("vector %d = %v, not reassembled by index", i, vec)
		}
	}
}

func TestOpenAIEmbedCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(fakeEmbeddings(t, &calls))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(openaiTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	defer e.Close()

	for i := 0; i < 3; i++ {
		if _, err := e.Embed(context.Background(), "same text"); err != nil {
			t.Fatalf("Embed failed: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1 (cached)", calls.Load())
	}
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var inner atomic.Int32
	ok := fakeEmbeddings(t, &inner)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		ok(w, r)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(openaiTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	defer e.Close()

	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("vector = %v", vec)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestOpenAIDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(openaiTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	defer e.Close()

	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("client error should fail")
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1 (no retry)", calls.Load())
	}
}

func TestOpenAIDimensionsLearnedFromResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(fakeEmbeddings(t, &calls))
	defer srv.Close()

	cfg := openaiTestConfig(t, srv.URL)
	cfg.Dimensions = 0
	e, err := NewOpenAIEmbedder(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	defer e.Close()

	if e.Dimensions() != 0 {
		t.Fatalf("Dimensions before first call = %d", e.Dimensions())
	}
	if _, err := e.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if e.Dimensions() != 4 {
		t.Errorf("Dimensions = %d, want 4", e.Dimensions())
	}
}

func TestRetryDelayCapped(t *testing.T) {
	if d := retryDelay(0); d != 200*time.Millisecond {
		t.Errorf("retryDelay(0) = %v", d)
	}
	if d := retryDelay(10); d != 5*time.Second {
		t.Errorf("retryDelay(10) = %v, want capped 5s", d)
	}
}

func TestOpenAICancelCutsRetryAfterWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(openaiTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = e.EmbedBatch(ctx, []string{"a"})
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected error after cancel")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if elapsed >= 2*time.Second {
		t.Errorf("cancel took %v, Retry-After wait not interrupted", elapsed)
	}
}
