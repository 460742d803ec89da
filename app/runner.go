package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"edgefinder/adapters/stats/senses"
	"edgefinder/adapters/stats/temporal"
	"edgefinder/domain/core"
	"edgefinder/internal"
	"edgefinder/internal/config"
	"edgefinder/models"
	"edgefinder/ports"
)

// Runner evaluates hypotheses: fetch raw series, align, dispatch to the test
// engine, interpret significance, persist the outcome. State transitions are
// one-way: a run ends with exactly one hypothesis write - the completed-result
// write or the failed-mark write, never both, never neither.
type Runner struct {
	ledger ports.Ledger
	engine *senses.Engine
	cfg    config.AnalysisConfig
	logger *internal.Logger
	now    func() time.Time
}

// NewRunner wires the runner with its collaborators.
func NewRunner(ledger ports.Ledger, engine *senses.Engine, cfg config.AnalysisConfig, logger *internal.Logger) *Runner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{
		ledger: ledger,
		engine: engine,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the runner's notion of now. Intended for tests.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// RunHypothesis evaluates a single hypothesis. An absent id fails with
// core.ErrNotFound and mutates nothing. Any failure after load is persisted as
// status=failed before the error is returned, so state is never ambiguous
// between "ran" and "not run".
func (r *Runner) RunHypothesis(ctx context.Context, id core.HypothesisID) (*models.TestResult, error) {
	r.logger.Info("running hypothesis %s", id)

	hyp, err := r.ledger.FetchHypothesis(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := r.evaluate(ctx, hyp)
	if err != nil {
		r.logger.Error("hypothesis %s failed: %v", id, err)
		if writeErr := r.ledger.WriteHypothesisFailure(ctx, id, err.Error()); writeErr != nil {
			return nil, fmt.Errorf("recording failure %q: %w", err.Error(), writeErr)
		}
		return nil, err
	}

	if err := r.ledger.WriteHypothesisResult(ctx, id, result); err != nil {
		return nil, err
	}

	if result.Significant {
		if err := r.createRelationship(ctx, hyp, result); err != nil {
			return nil, err
		}
	}

	r.logger.Info("hypothesis %s completed: p=%.4f", id, result.PValue)
	return result, nil
}

// evaluate runs the pure part of a hypothesis: fetch, align, test. Every error
// it returns is recorded as the hypothesis failure by the caller.
func (r *Runner) evaluate(ctx context.Context, hyp *models.Hypothesis) (*models.TestResult, error) {
	lookback := hyp.LookbackDays
	if lookback <= 0 {
		lookback = r.cfg.LookbackDaysDefault
	}
	end := r.now()
	start := end.AddDate(0, 0, -lookback)

	events, err := r.ledger.FetchEvents(ctx, ports.EventFilter{
		EventType: hyp.EventType,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, err
	}
	bars, err := r.ledger.FetchMarketBars(ctx, hyp.MarketAsset, start, end)
	if err != nil {
		return nil, err
	}

	if len(events) < r.cfg.MinSampleSize {
		return nil, core.NewInsufficientDataError("events", len(events), r.cfg.MinSampleSize)
	}
	if len(bars) < r.cfg.MinSampleSize {
		return nil, core.NewInsufficientDataError("market data", len(bars), r.cfg.MinSampleSize)
	}

	switch hyp.TestType {
	case models.TestCorrelation:
		return r.runCorrelation(events, bars)
	case models.TestGrangerCausality:
		return r.runGranger(events, bars)
	case models.TestEventStudy:
		return r.runEventStudy(events, bars)
	default:
		return nil, core.NewUnknownTestTypeError(string(hyp.TestType))
	}
}

func (r *Runner) runCorrelation(events []models.Event, bars []models.MarketBar) (*models.TestResult, error) {
	aligned, err := temporal.AlignDaily(events, bars, r.cfg.MinSampleSize)
	if err != nil {
		return nil, err
	}

	res, err := r.engine.CorrelationTest(aligned.X, aligned.Y, senses.MethodPearson)
	if err != nil {
		return nil, err
	}

	return &models.TestResult{
		TestType:    models.TestCorrelation,
		PValue:      res.PValue,
		HitRate:     directionalHitRate(aligned.X, aligned.Y),
		Edge:        0,
		SampleSize:  res.SampleSize,
		Significant: res.Significant,
		Details:     res.Payload(),
	}, nil
}

func (r *Runner) runGranger(events []models.Event, bars []models.MarketBar) (*models.TestResult, error) {
	aligned, err := temporal.AlignDaily(events, bars, r.cfg.MinSampleSize)
	if err != nil {
		return nil, err
	}

	res, err := r.engine.GrangerCausalityTest(aligned.X, aligned.Y, senses.DefaultGrangerMaxLag)
	if err != nil {
		return nil, err
	}
	if res.Degraded() {
		r.logger.Warn("granger test degraded: %s", res.Error)
	}

	return &models.TestResult{
		TestType:    models.TestGrangerCausality,
		PValue:      res.PValue,
		HitRate:     0.5,
		Edge:        0,
		SampleSize:  aligned.Length(),
		Significant: res.Significant,
		Details:     res.Payload(),
	}, nil
}

func (r *Runner) runEventStudy(events []models.Event, bars []models.MarketBar) (*models.TestResult, error) {
	eventTimes := make([]time.Time, len(events))
	for i, event := range events {
		eventTimes[i] = event.Timestamp
	}

	res, err := r.engine.EventStudy(eventTimes, bars, senses.DefaultPreWindow, senses.DefaultPostWindow)
	if err != nil {
		return nil, err
	}

	return &models.TestResult{
		TestType:    models.TestEventStudy,
		PValue:      res.PValue,
		HitRate:     res.HitRate,
		Edge:        res.Edge,
		SampleSize:  res.SampleSize,
		Significant: res.Significant,
		Details:     res.Payload(),
	}, nil
}

// createRelationship appends the discovery record for a significant run.
// Ordering matters: the hypothesis result is already written, so a crash here
// can never leave a relationship without its completed parent.
func (r *Runner) createRelationship(ctx context.Context, hyp *models.Hypothesis, result *models.TestResult) error {
	description := fmt.Sprintf("%s → %s: %.1f%% hit rate, p=%.4f",
		hyp.EventType, hyp.MarketAsset, result.HitRate*100, result.PValue)

	relID, err := r.ledger.InsertRelationship(ctx, &models.Relationship{
		EventType:     hyp.EventType,
		MarketAsset:   hyp.MarketAsset,
		HitRate:       result.HitRate,
		Edge:          result.Edge,
		PValue:        result.PValue,
		SampleSize:    result.SampleSize,
		Description:   description,
		Metadata:      result.Details,
		IsSignificant: true,
	})
	if err != nil {
		return fmt.Errorf("inserting relationship: %w", err)
	}

	r.logger.Info("created relationship %s: %s", relID, description)
	return nil
}

// directionalHitRate is the correlation-run hit rate: the fraction of days on
// which an above-median event signal coincided with a positive return.
func directionalHitRate(x, y []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	med := median(x)
	hits := 0
	for i := range x {
		if (x[i] > med) == (y[i] > 0) {
			hits++
		}
	}
	return float64(hits) / float64(len(x))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
