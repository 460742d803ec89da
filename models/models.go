package models

import (
	"time"

	"edgefinder/domain/core"
)

// TestType identifies the statistical procedure a hypothesis requests.
type TestType string

const (
	TestCorrelation      TestType = "correlation"
	TestGrangerCausality TestType = "granger_causality"
	TestEventStudy       TestType = "event_study"
)

// HypothesisStatus is the lifecycle state of a hypothesis.
// Transitions are one-way: pending -> completed or pending -> failed.
type HypothesisStatus string

const (
	StatusPending   HypothesisStatus = "pending"
	StatusCompleted HypothesisStatus = "completed"
	StatusFailed    HypothesisStatus = "failed"
)

// Event is a timestamped occurrence (news item, filing, social signal).
// Owned by the ingestion pipeline; read-only to the analysis core.
type Event struct {
	ID        core.EventID `db:"id" json:"id"`
	Timestamp time.Time    `db:"timestamp" json:"timestamp"`
	EventType string       `db:"event_type" json:"event_type"`
	Entity    string       `db:"entity" json:"entity"`
	Value     *float64     `db:"value" json:"value,omitempty"`
	Source    string       `db:"source" json:"source"`
}

// MarketBar is a single price observation for an asset.
// Close is normalized from either a close or price column at the storage layer.
type MarketBar struct {
	Asset     string    `db:"asset" json:"asset"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Close     float64   `db:"close" json:"close"`
}

// Hypothesis is a declared relationship under test: "event type X predicts asset Y".
// The analysis core is the sole writer of the post-pending fields.
type Hypothesis struct {
	ID           core.HypothesisID `db:"id" json:"id"`
	EventType    string            `db:"event_type" json:"event_type"`
	MarketAsset  string            `db:"market_asset" json:"market_asset"`
	TestType     TestType          `db:"test_type" json:"test_type"`
	LookbackDays int               `db:"lookback_days" json:"lookback_days"`
	Status       HypothesisStatus  `db:"status" json:"status"`

	// Populated after evaluation
	PValue       *float64   `db:"p_value" json:"p_value,omitempty"`
	HitRate      *float64   `db:"hit_rate" json:"hit_rate,omitempty"`
	Edge         *float64   `db:"edge" json:"edge,omitempty"`
	SampleSize   *int       `db:"sample_size" json:"sample_size,omitempty"`
	TestResults  []byte     `db:"test_results" json:"test_results,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	TestedAt     *time.Time `db:"tested_at" json:"tested_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TestResult is the outcome of one hypothesis evaluation. Details carries the
// full structured output of whichever test ran, for persistence as JSONB.
type TestResult struct {
	TestType    TestType               `json:"test_type"`
	PValue      float64                `json:"p_value"`
	HitRate     float64                `json:"hit_rate"`
	Edge        float64                `json:"edge"`
	SampleSize  int                    `json:"sample_size"`
	Significant bool                   `json:"significant"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Relationship is a durable record of a hypothesis that tested significant.
// Append-only: re-running a still-significant hypothesis inserts a new record.
type Relationship struct {
	ID            core.RelationshipID    `db:"id" json:"id"`
	EventType     string                 `db:"event_type" json:"event_type"`
	MarketAsset   string                 `db:"market_asset" json:"market_asset"`
	HitRate       float64                `db:"hit_rate" json:"hit_rate"`
	Edge          float64                `db:"edge" json:"edge"`
	PValue        float64                `db:"p_value" json:"p_value"`
	SampleSize    int                    `db:"sample_size" json:"sample_size"`
	Description   string                 `db:"description" json:"description"`
	Metadata      map[string]interface{} `db:"-" json:"metadata,omitempty"`
	IsSignificant bool                   `db:"is_significant" json:"is_significant"`
	CreatedAt     time.Time              `db:"created_at" json:"created_at"`
}
