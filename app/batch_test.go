package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgefinder/internal/testkit"
	"edgefinder/models"
)

func TestRunAllPending_IsolatesFailures(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := testkit.NewInMemoryLedger()
	seedCorrelatedFixture(ledger, base, "sec_filing", "SPY", 60)

	goodA := ledger.SeedHypothesis(models.Hypothesis{
		EventType:   "sec_filing",
		MarketAsset: "SPY",
		TestType:    models.TestCorrelation,
	})
	bad := ledger.SeedHypothesis(models.Hypothesis{
		EventType:   "sec_filing",
		MarketAsset: "SPY",
		TestType:    models.TestType("chi_squared"),
	})
	goodB := ledger.SeedHypothesis(models.Hypothesis{
		EventType:   "sec_filing",
		MarketAsset: "SPY",
		TestType:    models.TestGrangerCausality,
	})

	runner := newTestRunner(ledger, testAnalysisConfig(), base)
	report, err := runner.RunAllPending(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Success, 2)
	assert.Contains(t, report.Success, goodA)
	assert.Contains(t, report.Success, goodB)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, bad, report.Failed[0].ID)
	assert.Contains(t, report.Failed[0].Error, "unknown test type")

	// The failure is persisted on the hypothesis row, not just reported.
	hyp, _ := ledger.Hypothesis(bad)
	assert.Equal(t, models.StatusFailed, hyp.Status)
}

func TestRunAllPending_SkipsNonPending(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := testkit.NewInMemoryLedger()
	seedCorrelatedFixture(ledger, base, "sec_filing", "SPY", 60)

	pending := ledger.SeedHypothesis(models.Hypothesis{
		EventType:   "sec_filing",
		MarketAsset: "SPY",
		TestType:    models.TestCorrelation,
	})
	ledger.SeedHypothesis(models.Hypothesis{
		EventType:   "sec_filing",
		MarketAsset: "SPY",
		TestType:    models.TestCorrelation,
		Status:      models.StatusCompleted,
	})

	runner := newTestRunner(ledger, testAnalysisConfig(), base)
	report, err := runner.RunAllPending(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Success, 1)
	assert.Equal(t, pending, report.Success[0])
	assert.Empty(t, report.Failed)

	hyp, _ := ledger.Hypothesis(pending)
	assert.Equal(t, models.StatusCompleted, hyp.Status)
}

func TestRunAllPending_EmptySet(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := testkit.NewInMemoryLedger()

	runner := newTestRunner(ledger, testAnalysisConfig(), base)
	report, err := runner.RunAllPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Success)
	assert.Empty(t, report.Failed)
}

func TestRunAllPending_ConcurrentWorkers(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := testkit.NewInMemoryLedger()
	seedCorrelatedFixture(ledger, base, "sec_filing", "SPY", 60)

	var ids []string
	for i := 0; i < 6; i++ {
		id := ledger.SeedHypothesis(models.Hypothesis{
			EventType:   "sec_filing",
			MarketAsset: "SPY",
			TestType:    models.TestCorrelation,
		})
		ids = append(ids, id.String())
	}

	cfg := testAnalysisConfig()
	cfg.BatchWorkers = 4
	runner := newTestRunner(ledger, cfg, base)
	report, err := runner.RunAllPending(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Success, len(ids))
	assert.Empty(t, report.Failed)

	// Sorted output keeps the report deterministic under concurrency.
	for i := 1; i < len(report.Success); i++ {
		assert.LessOrEqual(t, report.Success[i-1], report.Success[i])
	}
}
