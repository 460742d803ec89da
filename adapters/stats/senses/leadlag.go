package senses

import (
	"fmt"
	"math"

	"edgefinder/domain/core"
)

// DefaultLeadLagMaxLag bounds the scan when the caller does not specify one.
const DefaultLeadLagMaxLag = 10

// LeadLagResult is the output of LeadLagScan.
type LeadLagResult struct {
	BestLag         int             `json:"best_lag"`
	BestCorrelation float64         `json:"best_correlation"`
	AllCorrelations map[int]float64 `json:"all_correlations"`
	Interpretation  string          `json:"interpretation"`
}

// Payload returns the result as a generic persistence map.
func (r *LeadLagResult) Payload() map[string]interface{} {
	return asPayload(r)
}

// LeadLagScan finds the integer offset in [-maxLag, maxLag] at which the two
// series are maximally correlated in absolute value. Lags whose trimmed
// overlap falls below the minimum sample size are skipped; ties are broken by
// the first qualifying lag in ascending order.
func (e *Engine) LeadLagScan(x, y []float64, maxLag int) (*LeadLagResult, error) {
	if len(x) != len(y) {
		return nil, core.ErrLengthMismatch
	}
	if maxLag <= 0 {
		maxLag = DefaultLeadLagMaxLag
	}

	correlations := make(map[int]float64)
	found := false
	bestLag := 0
	bestCorr := 0.0

	for lag := -maxLag; lag <= maxLag; lag++ {
		xShifted, yShifted := shiftPair(x, y, lag)
		if len(xShifted) < e.minSampleSize {
			continue
		}
		corr := pearson(xShifted, yShifted)
		if math.IsNaN(corr) {
			corr = 0
		}
		correlations[lag] = corr

		if !found || math.Abs(corr) > math.Abs(bestCorr) {
			found = true
			bestLag = lag
			bestCorr = corr
		}
	}

	if !found {
		return nil, core.NewInsufficientDataError("lead/lag overlap", len(x)-maxLag, e.minSampleSize)
	}

	return &LeadLagResult{
		BestLag:         bestLag,
		BestCorrelation: bestCorr,
		AllCorrelations: correlations,
		Interpretation:  interpretLeadLag(bestLag),
	}, nil
}

// shiftPair trims the two series so that x is offset against y by lag periods.
func shiftPair(x, y []float64, lag int) ([]float64, []float64) {
	n := len(x)
	switch {
	case lag < 0:
		if -lag >= n {
			return nil, nil
		}
		return x[-lag:], y[:n+lag]
	case lag > 0:
		if lag >= n {
			return nil, nil
		}
		return x[:n-lag], y[lag:]
	default:
		return x, y
	}
}

func interpretLeadLag(lag int) string {
	switch {
	case lag < 0:
		return fmt.Sprintf("X leads Y by %d periods", -lag)
	case lag > 0:
		return fmt.Sprintf("Y leads X by %d periods", lag)
	default:
		return "No lead/lag relationship"
	}
}
