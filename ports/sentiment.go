package ports

import "context"

// SentimentScore is the classification of a single text.
type SentimentScore struct {
	Text          string             `json:"text,omitempty"`
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Score         float64            `json:"sentiment_score"` // positive minus negative, in [-1, 1]
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

// AggregateSentiment summarizes sentiment over a batch of texts.
type AggregateSentiment struct {
	MeanSentiment float64 `json:"mean_sentiment"`
	SentimentStd  float64 `json:"sentiment_std"`
	PositiveRatio float64 `json:"positive_ratio"`
	NegativeRatio float64 `json:"negative_ratio"`
	NeutralRatio  float64 `json:"neutral_ratio"`
	Count         int     `json:"count"`
}

// SentimentScorer scores financial text against an external classification
// model. Initialize is explicit and idempotent; callers trigger it before
// first use instead of relying on implicit lazy state.
type SentimentScorer interface {
	Initialize(ctx context.Context) error
	Analyze(ctx context.Context, text string) (*SentimentScore, error)
	AnalyzeBatch(ctx context.Context, texts []string) ([]SentimentScore, error)
	Aggregate(ctx context.Context, texts []string) (*AggregateSentiment, error)
}
