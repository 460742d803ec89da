// Package sentiment is a thin client for an external text-classification
// inference service. The model itself (tokenizer, weights, GPU placement)
// lives behind the service; this adapter only batches requests and aggregates
// scores.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"edgefinder/internal/config"
	apperrors "edgefinder/internal/errors"
	"edgefinder/ports"

	"github.com/montanaflynn/stats"
)

const defaultTimeout = 60 * time.Second

// Client implements ports.SentimentScorer over HTTP.
type Client struct {
	baseURL   string
	model     string
	batchSize int
	http      *http.Client

	initOnce sync.Once
	initErr  error
}

// NewClient creates an uninitialized client. Callers must invoke Initialize
// before scoring; initialization is explicit and idempotent rather than a
// hidden lazy load on first use.
func NewClient(cfg config.SentimentConfig) *Client {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Client{
		baseURL:   cfg.URL,
		model:     cfg.Model,
		batchSize: batchSize,
		http:      &http.Client{Timeout: defaultTimeout},
	}
}

// Initialize asks the inference service to load the model. Safe to call from
// multiple goroutines; the warm-up request happens exactly once.
func (c *Client) Initialize(ctx context.Context) error {
	c.initOnce.Do(func() {
		body, _ := json.Marshal(map[string]string{"model": c.model})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/load", bytes.NewReader(body))
		if err != nil {
			c.initErr = err
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			c.initErr = apperrors.ExternalServiceError("sentiment", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			c.initErr = apperrors.ExternalServiceError("sentiment",
				fmt.Errorf("model load returned status %d", resp.StatusCode))
		}
	})
	return c.initErr
}

type inferenceRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type inferenceResponse struct {
	Results []struct {
		Label  string             `json:"label"`
		Scores map[string]float64 `json:"scores"`
	} `json:"results"`
}

// Analyze scores a single text.
func (c *Client) Analyze(ctx context.Context, text string) (*ports.SentimentScore, error) {
	scores, err := c.AnalyzeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return &scores[0], nil
}

// AnalyzeBatch scores texts in fixed-size batches.
func (c *Client) AnalyzeBatch(ctx context.Context, texts []string) ([]ports.SentimentScore, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	out := make([]ports.SentimentScore, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.classify(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) classify(ctx context.Context, texts []string) ([]ports.SentimentScore, error) {
	body, err := json.Marshal(inferenceRequest{Model: c.model, Texts: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.ExternalServiceError("sentiment", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ExternalServiceError("sentiment",
			fmt.Errorf("classify returned status %d", resp.StatusCode))
	}

	var parsed inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.ExternalServiceError("sentiment", err)
	}
	if len(parsed.Results) != len(texts) {
		return nil, apperrors.ExternalServiceError("sentiment",
			fmt.Errorf("expected %d results, got %d", len(texts), len(parsed.Results)))
	}

	scores := make([]ports.SentimentScore, len(parsed.Results))
	for i, res := range parsed.Results {
		scores[i] = ports.SentimentScore{
			Text:          truncate(texts[i], 100),
			Label:         res.Label,
			Confidence:    res.Scores[res.Label],
			Score:         res.Scores["positive"] - res.Scores["negative"],
			Probabilities: res.Scores,
		}
	}
	return scores, nil
}

// Aggregate scores all texts and summarizes the distribution.
func (c *Client) Aggregate(ctx context.Context, texts []string) (*ports.AggregateSentiment, error) {
	if len(texts) == 0 {
		return &ports.AggregateSentiment{}, nil
	}

	scored, err := c.AnalyzeBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(scored))
	counts := map[string]int{}
	for i, s := range scored {
		values[i] = s.Score
		counts[s.Label]++
	}

	mean, _ := stats.Mean(values)
	std, _ := stats.StandardDeviation(values)
	n := float64(len(scored))

	return &ports.AggregateSentiment{
		MeanSentiment: mean,
		SentimentStd:  std,
		PositiveRatio: float64(counts["positive"]) / n,
		NegativeRatio: float64(counts["negative"]) / n,
		NeutralRatio:  float64(counts["neutral"]) / n,
		Count:         len(scored),
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
