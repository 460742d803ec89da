package ports

import (
	"context"
	"time"

	"edgefinder/domain/core"
	"edgefinder/models"
)

// EventFilter narrows an event fetch. Zero-valued fields are ignored.
type EventFilter struct {
	EventType string
	Entity    string
	Source    string
	Start     time.Time
	End       time.Time
}

// Ledger is the persistence contract the analysis core depends on.
// Implementations must return event and bar sequences in ascending timestamp
// order, and each row-level write must be atomic from the perspective of a
// single hypothesis run.
type Ledger interface {
	// FetchEvents returns events matching the filter, ascending by timestamp
	FetchEvents(ctx context.Context, filter EventFilter) ([]models.Event, error)

	// FetchMarketBars returns price observations for an asset in [start, end],
	// ascending by timestamp
	FetchMarketBars(ctx context.Context, asset string, start, end time.Time) ([]models.MarketBar, error)

	// FetchHypothesis returns a hypothesis by id, or core.ErrNotFound
	FetchHypothesis(ctx context.Context, id core.HypothesisID) (*models.Hypothesis, error)

	// FetchPendingHypothesisIDs returns pending hypothesis ids ascending by
	// creation time
	FetchPendingHypothesisIDs(ctx context.Context) ([]core.HypothesisID, error)

	// WriteHypothesisResult persists a completed run: result fields,
	// status=completed, tested_at=now
	WriteHypothesisResult(ctx context.Context, id core.HypothesisID, result *models.TestResult) error

	// WriteHypothesisFailure persists a failed run: error message,
	// status=failed, tested_at=now
	WriteHypothesisFailure(ctx context.Context, id core.HypothesisID, message string) error

	// InsertRelationship appends a discovered relationship and returns its id
	InsertRelationship(ctx context.Context, rel *models.Relationship) (core.RelationshipID, error)

	// ListRelationships returns the most recent relationships, newest first
	ListRelationships(ctx context.Context, limit int) ([]models.Relationship, error)
}
