package app

import (
	"context"
	"sort"
	"sync"

	"edgefinder/domain/core"

	"golang.org/x/sync/errgroup"
)

// BatchFailure records one hypothesis that failed during a batch run. The
// failure is already persisted on the hypothesis row by the time it lands here.
type BatchFailure struct {
	ID    core.HypothesisID `json:"id"`
	Error string            `json:"error"`
}

// BatchReport is the aggregate outcome of RunAllPending. Both lists are sorted
// by id so the report is deterministic regardless of completion order.
type BatchReport struct {
	Success []core.HypothesisID `json:"success"`
	Failed  []BatchFailure      `json:"failed"`
}

// RunAllPending evaluates every pending hypothesis, isolating failures
// per-item: one bad hypothesis never aborts the batch. Only a failure to
// enumerate the pending set is fatal. With cfg.BatchWorkers > 1 the iterations
// run on a bounded pool; no two runs ever share a hypothesis id, so this is
// purely a throughput knob.
func (r *Runner) RunAllPending(ctx context.Context) (*BatchReport, error) {
	pending, err := r.ledger.FetchPendingHypothesisIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{
		Success: []core.HypothesisID{},
		Failed:  []BatchFailure{},
	}

	var mu sync.Mutex
	record := func(id core.HypothesisID, runErr error) {
		mu.Lock()
		defer mu.Unlock()
		if runErr != nil {
			report.Failed = append(report.Failed, BatchFailure{ID: id, Error: runErr.Error()})
			return
		}
		report.Success = append(report.Success, id)
	}

	workers := r.cfg.BatchWorkers
	if workers <= 1 {
		for _, id := range pending {
			_, runErr := r.RunHypothesis(ctx, id)
			record(id, runErr)
		}
	} else {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(workers)
		for _, id := range pending {
			id := id
			group.Go(func() error {
				_, runErr := r.RunHypothesis(groupCtx, id)
				record(id, runErr)
				return nil // per-item failures stay in the report
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	sort.Slice(report.Success, func(i, j int) bool { return report.Success[i] < report.Success[j] })
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].ID < report.Failed[j].ID })

	r.logger.Info("batch complete: %d succeeded, %d failed", len(report.Success), len(report.Failed))
	return report, nil
}
