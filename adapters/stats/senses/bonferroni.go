package senses

import (
	"fmt"
)

// BonferroniResult is the output of ApplyBonferroni.
type BonferroniResult struct {
	OriginalPValues  []float64 `json:"original_p_values"`
	CorrectedPValues []float64 `json:"corrected_p_values"`
	RejectNull       []bool    `json:"reject_null"`
	NumSignificant   int       `json:"num_significant"`
	CorrectionFactor int       `json:"correction_factor"`
}

// ApplyBonferroni applies the classic Bonferroni correction to a family of raw
// p-values: corrected p_i = min(1, p_i * n), reject when corrected p_i < alpha.
// It is never invoked automatically by the per-hypothesis runner; callers
// evaluating hypothesis families opt in.
func ApplyBonferroni(pValues []float64, alpha float64) (*BonferroniResult, error) {
	if len(pValues) == 0 {
		return nil, fmt.Errorf("no p-values to correct")
	}

	n := len(pValues)
	corrected := make([]float64, n)
	reject := make([]bool, n)
	numSignificant := 0

	for i, p := range pValues {
		c := p * float64(n)
		if c > 1 {
			c = 1
		}
		corrected[i] = c
		if c < alpha {
			reject[i] = true
			numSignificant++
		}
	}

	return &BonferroniResult{
		OriginalPValues:  pValues,
		CorrectedPValues: corrected,
		RejectNull:       reject,
		NumSignificant:   numSignificant,
		CorrectionFactor: n,
	}, nil
}
