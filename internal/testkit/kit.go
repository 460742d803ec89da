// Package testkit provides an in-memory ledger and synthetic series
// generators for exercising the evaluation pipeline without a database.
package testkit

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"edgefinder/domain/core"
	"edgefinder/models"
	"edgefinder/ports"
)

// InMemoryLedger is a thread-safe ports.Ledger backed by maps.
type InMemoryLedger struct {
	mu            sync.Mutex
	events        []models.Event
	bars          []models.MarketBar
	hypotheses    map[core.HypothesisID]*models.Hypothesis
	order         []core.HypothesisID // creation order
	relationships []models.Relationship
	now           func() time.Time
}

// NewInMemoryLedger creates an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		hypotheses: make(map[core.HypothesisID]*models.Hypothesis),
		now:        time.Now,
	}
}

// SeedEvents adds events to the ledger.
func (l *InMemoryLedger) SeedEvents(events ...models.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
}

// SeedBars adds market bars to the ledger.
func (l *InMemoryLedger) SeedBars(bars ...models.MarketBar) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bars = append(l.bars, bars...)
}

// SeedHypothesis registers a pending hypothesis and returns its id.
func (l *InMemoryLedger) SeedHypothesis(hyp models.Hypothesis) core.HypothesisID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if hyp.ID == "" {
		hyp.ID = core.HypothesisID(core.NewID())
	}
	if hyp.Status == "" {
		hyp.Status = models.StatusPending
	}
	if hyp.CreatedAt.IsZero() {
		hyp.CreatedAt = l.now()
	}
	l.hypotheses[hyp.ID] = &hyp
	l.order = append(l.order, hyp.ID)
	return hyp.ID
}

// Hypothesis returns a snapshot of the stored hypothesis row.
func (l *InMemoryLedger) Hypothesis(id core.HypothesisID) (models.Hypothesis, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hyp, ok := l.hypotheses[id]
	if !ok {
		return models.Hypothesis{}, false
	}
	return *hyp, true
}

// Relationships returns all inserted relationships.
func (l *InMemoryLedger) Relationships() []models.Relationship {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Relationship, len(l.relationships))
	copy(out, l.relationships)
	return out
}

// FetchEvents implements ports.Ledger.
func (l *InMemoryLedger) FetchEvents(ctx context.Context, filter ports.EventFilter) ([]models.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Event
	for _, event := range l.events {
		if filter.EventType != "" && event.EventType != filter.EventType {
			continue
		}
		if filter.Entity != "" && event.Entity != filter.Entity {
			continue
		}
		if filter.Source != "" && event.Source != filter.Source {
			continue
		}
		if !filter.Start.IsZero() && event.Timestamp.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && event.Timestamp.After(filter.End) {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// FetchMarketBars implements ports.Ledger.
func (l *InMemoryLedger) FetchMarketBars(ctx context.Context, asset string, start, end time.Time) ([]models.MarketBar, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.MarketBar
	for _, bar := range l.bars {
		if bar.Asset != asset {
			continue
		}
		if bar.Timestamp.Before(start) || bar.Timestamp.After(end) {
			continue
		}
		out = append(out, bar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// FetchHypothesis implements ports.Ledger.
func (l *InMemoryLedger) FetchHypothesis(ctx context.Context, id core.HypothesisID) (*models.Hypothesis, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hyp, ok := l.hypotheses[id]
	if !ok {
		return nil, core.NewNotFoundError("hypothesis", id.String())
	}
	snapshot := *hyp
	return &snapshot, nil
}

// FetchPendingHypothesisIDs implements ports.Ledger.
func (l *InMemoryLedger) FetchPendingHypothesisIDs(ctx context.Context) ([]core.HypothesisID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []core.HypothesisID
	for _, id := range l.order {
		if l.hypotheses[id].Status == models.StatusPending {
			out = append(out, id)
		}
	}
	return out, nil
}

// WriteHypothesisResult implements ports.Ledger.
func (l *InMemoryLedger) WriteHypothesisResult(ctx context.Context, id core.HypothesisID, result *models.TestResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	hyp, ok := l.hypotheses[id]
	if !ok {
		return core.NewNotFoundError("hypothesis", id.String())
	}
	testResults, err := json.Marshal(result.Details)
	if err != nil {
		return fmt.Errorf("marshaling test results: %w", err)
	}
	now := l.now()
	pValue, hitRate, edge, sampleSize := result.PValue, result.HitRate, result.Edge, result.SampleSize
	hyp.Status = models.StatusCompleted
	hyp.PValue = &pValue
	hyp.HitRate = &hitRate
	hyp.Edge = &edge
	hyp.SampleSize = &sampleSize
	hyp.TestResults = testResults
	hyp.TestedAt = &now
	return nil
}

// WriteHypothesisFailure implements ports.Ledger.
func (l *InMemoryLedger) WriteHypothesisFailure(ctx context.Context, id core.HypothesisID, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	hyp, ok := l.hypotheses[id]
	if !ok {
		return core.NewNotFoundError("hypothesis", id.String())
	}
	now := l.now()
	hyp.Status = models.StatusFailed
	hyp.ErrorMessage = &message
	hyp.TestedAt = &now
	return nil
}

// InsertRelationship implements ports.Ledger.
func (l *InMemoryLedger) InsertRelationship(ctx context.Context, rel *models.Relationship) (core.RelationshipID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored := *rel
	stored.ID = core.RelationshipID(core.NewID())
	stored.CreatedAt = l.now()
	l.relationships = append(l.relationships, stored)
	return stored.ID, nil
}

// ListRelationships implements ports.Ledger.
func (l *InMemoryLedger) ListRelationships(ctx context.Context, limit int) ([]models.Relationship, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Relationship, len(l.relationships))
	copy(out, l.relationships)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ============================================================================
// Synthetic series generators
// ============================================================================

// GenerateDailyEvents produces one event per day for n days starting at start,
// with values drawn from valueFn(day).
func GenerateDailyEvents(eventType string, start time.Time, n int, valueFn func(day int) float64) []models.Event {
	events := make([]models.Event, n)
	for i := 0; i < n; i++ {
		value := valueFn(i)
		events[i] = models.Event{
			ID:        core.EventID(core.NewID()),
			Timestamp: start.AddDate(0, 0, i).Add(10 * time.Hour),
			EventType: eventType,
			Value:     &value,
			Source:    "testkit",
		}
	}
	return events
}

// GenerateDailyBars produces one closing bar per day for n days starting at
// start, with closes from closeFn(day).
func GenerateDailyBars(asset string, start time.Time, n int, closeFn func(day int) float64) []models.MarketBar {
	bars := make([]models.MarketBar, n)
	for i := 0; i < n; i++ {
		bars[i] = models.MarketBar{
			Asset:     asset,
			Timestamp: start.AddDate(0, 0, i).Add(21 * time.Hour),
			Close:     closeFn(i),
		}
	}
	return bars
}

// CorrelatedWalk builds a price path whose next-day return follows signal with
// additive noise, for constructing strongly associated fixtures.
func CorrelatedWalk(signal []float64, scale, noise float64, rng *rand.Rand) []float64 {
	prices := make([]float64, len(signal)+1)
	prices[0] = 100
	for i, s := range signal {
		ret := s*scale + rng.NormFloat64()*noise
		prices[i+1] = prices[i] * (1 + ret)
	}
	return prices
}
