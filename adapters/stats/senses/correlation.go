package senses

import (
	"fmt"
	"math"

	"edgefinder/domain/core"
)

// CorrelationMethod selects the correlation statistic.
type CorrelationMethod string

const (
	MethodPearson  CorrelationMethod = "pearson"
	MethodSpearman CorrelationMethod = "spearman"
)

// CorrelationResult is the output of CorrelationTest.
type CorrelationResult struct {
	Correlation float64           `json:"correlation"`
	PValue      float64           `json:"p_value"`
	Significant bool              `json:"significant"`
	SampleSize  int               `json:"sample_size"`
	Method      CorrelationMethod `json:"method"`
}

// Payload returns the result as a generic persistence map.
func (r *CorrelationResult) Payload() map[string]interface{} {
	return asPayload(r)
}

// CorrelationTest measures the linear (pearson) or monotonic (spearman)
// association between two equal-length series.
func (e *Engine) CorrelationTest(x, y []float64, method CorrelationMethod) (*CorrelationResult, error) {
	if err := e.validatePair(x, y); err != nil {
		return nil, err
	}

	var corr float64
	switch method {
	case MethodPearson:
		corr = pearson(x, y)
	case MethodSpearman:
		// Spearman's rho is Pearson over ranks, with ties averaged.
		corr = pearson(ranks(x), ranks(y))
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownMethod, method)
	}

	if math.IsNaN(corr) {
		// Zero-variance input: no association measurable.
		corr = 0
	}

	pValue := correlationPValue(corr, len(x))

	return &CorrelationResult{
		Correlation: corr,
		PValue:      pValue,
		Significant: pValue < e.alpha,
		SampleSize:  len(x),
		Method:      method,
	}, nil
}
