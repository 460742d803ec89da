package sentiment

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"edgefinder/internal/config"
)

// fakeInference mimics the classification service: /models/load plus /classify
// returning a fixed label per text.
func fakeInference(t *testing.T, loadCalls, classifyCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/load":
			atomic.AddInt32(loadCalls, 1)
			w.WriteHeader(http.StatusOK)
		case "/classify":
			atomic.AddInt32(classifyCalls, 1)
			var req inferenceRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			var resp inferenceResponse
			for range req.Texts {
				resp.Results = append(resp.Results, struct {
					Label  string             `json:"label"`
					Scores map[string]float64 `json:"scores"`
				}{
					Label:  "positive",
					Scores: map[string]float64{"positive": 0.8, "negative": 0.1, "neutral": 0.1},
				})
			}
			json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClient_InitializeOnce(t *testing.T) {
	var loadCalls, classifyCalls int32
	srv := fakeInference(t, &loadCalls, &classifyCalls)
	defer srv.Close()

	client := NewClient(config.SentimentConfig{URL: srv.URL, Model: "test-model", BatchSize: 32})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := client.Initialize(ctx); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
	}
	if got := atomic.LoadInt32(&loadCalls); got != 1 {
		t.Errorf("Expected exactly one model load, got %d", got)
	}
}

func TestClient_AnalyzeBatchChunks(t *testing.T) {
	var loadCalls, classifyCalls int32
	srv := fakeInference(t, &loadCalls, &classifyCalls)
	defer srv.Close()

	client := NewClient(config.SentimentConfig{URL: srv.URL, Model: "test-model", BatchSize: 2})
	texts := []string{"a", "b", "c", "d", "e"}

	scores, err := client.AnalyzeBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("AnalyzeBatch failed: %v", err)
	}
	if len(scores) != len(texts) {
		t.Fatalf("Expected %d scores, got %d", len(texts), len(scores))
	}
	// 5 texts at batch size 2: three classify calls.
	if got := atomic.LoadInt32(&classifyCalls); got != 3 {
		t.Errorf("Expected 3 classify calls, got %d", got)
	}

	for i, s := range scores {
		if s.Label != "positive" {
			t.Errorf("score %d: expected positive label, got %q", i, s.Label)
		}
		if math.Abs(s.Score-0.7) > 1e-9 {
			t.Errorf("score %d: expected net score 0.7, got %.2f", i, s.Score)
		}
		if s.Confidence != 0.8 {
			t.Errorf("score %d: expected confidence 0.8, got %.2f", i, s.Confidence)
		}
	}
}

func TestClient_Aggregate(t *testing.T) {
	var loadCalls, classifyCalls int32
	srv := fakeInference(t, &loadCalls, &classifyCalls)
	defer srv.Close()

	client := NewClient(config.SentimentConfig{URL: srv.URL, Model: "test-model", BatchSize: 32})

	agg, err := client.Aggregate(context.Background(), []string{"up", "way up"})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.Count != 2 {
		t.Errorf("Expected count 2, got %d", agg.Count)
	}
	if agg.PositiveRatio != 1.0 {
		t.Errorf("Expected positive ratio 1.0, got %.2f", agg.PositiveRatio)
	}
	if math.Abs(agg.MeanSentiment-0.7) > 1e-9 {
		t.Errorf("Expected mean sentiment 0.7, got %.2f", agg.MeanSentiment)
	}
}

func TestClient_AggregateEmpty(t *testing.T) {
	client := NewClient(config.SentimentConfig{URL: "http://unused", Model: "m"})
	agg, err := client.Aggregate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.Count != 0 {
		t.Errorf("Expected empty aggregate, got count %d", agg.Count)
	}
}

func TestClient_FailedInitializeSticks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(config.SentimentConfig{URL: srv.URL, Model: "m"})
	if err := client.Initialize(context.Background()); err == nil {
		t.Fatal("Expected initialize error from unavailable service")
	}
	if _, err := client.AnalyzeBatch(context.Background(), []string{"x"}); err == nil {
		t.Error("Expected scoring to surface the stuck initialize error")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Errorf("Expected unchanged text, got %q", got)
	}
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}
	got := truncate(string(long), 100)
	if len(got) != 103 {
		t.Errorf("Expected 100 chars plus ellipsis, got %d", len(got))
	}
}
