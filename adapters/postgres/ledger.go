package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edgefinder/domain/core"
	"edgefinder/models"
	"edgefinder/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// LedgerImpl implements ports.Ledger for PostgreSQL
type LedgerImpl struct {
	db *sqlx.DB
}

// NewLedger creates a new PostgreSQL ledger
func NewLedger(db *sqlx.DB) ports.Ledger {
	return &LedgerImpl{db: db}
}

// Connect opens and pings a PostgreSQL connection
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, nil
}

// FetchEvents returns events matching the filter, ascending by timestamp
func (l *LedgerImpl) FetchEvents(ctx context.Context, filter ports.EventFilter) ([]models.Event, error) {
	query := `SELECT id, timestamp, event_type, COALESCE(entity, '') AS entity, value, COALESCE(source, '') AS source
		FROM events WHERE 1=1`
	args := []interface{}{}

	if filter.EventType != "" {
		args = append(args, filter.EventType)
		query += fmt.Sprintf(" AND event_type = $%d", len(args))
	}
	if filter.Entity != "" {
		args = append(args, filter.Entity)
		query += fmt.Sprintf(" AND entity = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	query += " ORDER BY timestamp ASC"

	var events []models.Event
	if err := l.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	return events, nil
}

// FetchMarketBars returns price observations for an asset, ascending by
// timestamp. A price column is normalized to close when close is absent.
func (l *LedgerImpl) FetchMarketBars(ctx context.Context, asset string, start, end time.Time) ([]models.MarketBar, error) {
	var bars []models.MarketBar
	err := l.db.SelectContext(ctx, &bars, `
		SELECT asset, timestamp, COALESCE(close, price) AS close
		FROM market_data
		WHERE asset = $1 AND timestamp >= $2 AND timestamp <= $3
		  AND COALESCE(close, price) IS NOT NULL
		ORDER BY timestamp ASC`, asset, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching market data for %s: %w", asset, err)
	}
	return bars, nil
}

// FetchHypothesis returns a hypothesis by id, or core.ErrNotFound
func (l *LedgerImpl) FetchHypothesis(ctx context.Context, id core.HypothesisID) (*models.Hypothesis, error) {
	var hyp models.Hypothesis
	err := l.db.GetContext(ctx, &hyp, `
		SELECT id, event_type, market_asset, test_type,
		       COALESCE(lookback_days, 0) AS lookback_days, status,
		       p_value, hit_rate, edge, sample_size, test_results,
		       error_message, tested_at, created_at
		FROM hypotheses WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("hypothesis", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("fetching hypothesis %s: %w", id, err)
	}
	return &hyp, nil
}

// FetchPendingHypothesisIDs returns pending hypothesis ids ascending by creation time
func (l *LedgerImpl) FetchPendingHypothesisIDs(ctx context.Context) ([]core.HypothesisID, error) {
	var ids []core.HypothesisID
	err := l.db.SelectContext(ctx, &ids,
		`SELECT id FROM hypotheses WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing pending hypotheses: %w", err)
	}
	return ids, nil
}

// WriteHypothesisResult persists a completed run
func (l *LedgerImpl) WriteHypothesisResult(ctx context.Context, id core.HypothesisID, result *models.TestResult) error {
	testResultsJSON, err := json.Marshal(result.Details)
	if err != nil {
		return fmt.Errorf("marshaling test results: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		UPDATE hypotheses
		SET status = 'completed',
		    p_value = $2,
		    hit_rate = $3,
		    edge = $4,
		    sample_size = $5,
		    test_results = $6,
		    tested_at = NOW()
		WHERE id = $1`,
		id, result.PValue, result.HitRate, result.Edge, result.SampleSize, testResultsJSON)
	if err != nil {
		return fmt.Errorf("writing result for hypothesis %s: %w", id, err)
	}
	return nil
}

// WriteHypothesisFailure persists a failed run
func (l *LedgerImpl) WriteHypothesisFailure(ctx context.Context, id core.HypothesisID, message string) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE hypotheses
		SET status = 'failed',
		    error_message = $2,
		    tested_at = NOW()
		WHERE id = $1`, id, message)
	if err != nil {
		return fmt.Errorf("marking hypothesis %s failed: %w", id, err)
	}
	return nil
}

// InsertRelationship appends a discovered relationship and returns its id
func (l *LedgerImpl) InsertRelationship(ctx context.Context, rel *models.Relationship) (core.RelationshipID, error) {
	metadataJSON, err := json.Marshal(rel.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshaling relationship metadata: %w", err)
	}

	var id core.RelationshipID
	err = l.db.QueryRowContext(ctx, `
		INSERT INTO relationships
			(event_type, market_asset, hit_rate, edge, p_value, sample_size,
			 description, metadata, is_significant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		rel.EventType, rel.MarketAsset, rel.HitRate, rel.Edge, rel.PValue,
		rel.SampleSize, rel.Description, metadataJSON, rel.IsSignificant,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting relationship: %w", err)
	}
	return id, nil
}

// ListRelationships returns the most recent relationships, newest first
func (l *LedgerImpl) ListRelationships(ctx context.Context, limit int) ([]models.Relationship, error) {
	query := `
		SELECT id, event_type, market_asset, hit_rate, edge, p_value,
		       sample_size, description, metadata, is_significant, created_at
		FROM relationships
		ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $1"
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		var rel models.Relationship
		var metadataJSON []byte
		err := rows.Scan(&rel.ID, &rel.EventType, &rel.MarketAsset, &rel.HitRate,
			&rel.Edge, &rel.PValue, &rel.SampleSize, &rel.Description,
			&metadataJSON, &rel.IsSignificant, &rel.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &rel.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata for relationship %s: %w", rel.ID, err)
			}
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}
