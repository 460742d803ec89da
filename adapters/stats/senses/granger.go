package senses

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultGrangerMaxLag matches the conventional short-horizon scan.
const DefaultGrangerMaxLag = 5

// GrangerResult is the output of GrangerCausalityTest. When the underlying
// regression fails numerically (singular design matrix, too few observations
// at a lag), the result degrades to a neutral finding and Error carries the
// reason - it never propagates as a Go error.
type GrangerResult struct {
	PValue      float64         `json:"p_value"`
	BestLag     int             `json:"best_lag"`
	Significant bool            `json:"significant"`
	SampleSize  int             `json:"sample_size"`
	AllPValues  map[int]float64 `json:"all_p_values,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Payload returns the result as a generic persistence map.
func (r *GrangerResult) Payload() map[string]interface{} {
	return asPayload(r)
}

// Degraded reports whether this result is a numerical-failure placeholder
// rather than a genuine non-significant finding.
func (r *GrangerResult) Degraded() bool {
	return r.Error != ""
}

// GrangerCausalityTest tests whether past values of x help predict y beyond
// y's own past. It runs the SSR F-test once per lag 1..maxLag and reports the
// smallest p-value with its lag. The multiple-testing exposure is deliberate;
// callers evaluating families may correct with ApplyBonferroni.
func (e *Engine) GrangerCausalityTest(x, y []float64, maxLag int) (*GrangerResult, error) {
	if err := e.validatePair(x, y); err != nil {
		return nil, err
	}
	if maxLag <= 0 {
		maxLag = DefaultGrangerMaxLag
	}

	allP := make(map[int]float64, maxLag)
	bestP := math.Inf(1)
	bestLag := 0

	for lag := 1; lag <= maxLag; lag++ {
		p, err := grangerLagPValue(x, y, lag)
		if err != nil {
			return &GrangerResult{
				PValue:      1.0,
				Significant: false,
				SampleSize:  len(x),
				Error:       fmt.Sprintf("lag %d: %v", lag, err),
			}, nil
		}
		allP[lag] = p
		if p < bestP {
			bestP = p
			bestLag = lag
		}
	}

	return &GrangerResult{
		PValue:      bestP,
		BestLag:     bestLag,
		Significant: bestP < e.alpha,
		SampleSize:  len(x),
		AllPValues:  allP,
	}, nil
}

// grangerLagPValue computes the SSR F-test p-value at a single lag.
//
// Restricted model:   y_t = c + a_1 y_{t-1} + ... + a_L y_{t-L}
// Unrestricted model: restricted + b_1 x_{t-1} + ... + b_L x_{t-L}
func grangerLagPValue(x, y []float64, lag int) (float64, error) {
	n := len(y)
	nobs := n - lag
	dfDenom := nobs - 2*lag - 1
	if dfDenom <= 0 {
		return 0, fmt.Errorf("not enough observations for %d lags", lag)
	}

	target := make([]float64, nobs)
	restricted := mat.NewDense(nobs, lag+1, nil)
	unrestricted := mat.NewDense(nobs, 2*lag+1, nil)

	for t := 0; t < nobs; t++ {
		target[t] = y[t+lag]
		restricted.Set(t, 0, 1)
		unrestricted.Set(t, 0, 1)
		for i := 1; i <= lag; i++ {
			restricted.Set(t, i, y[t+lag-i])
			unrestricted.Set(t, i, y[t+lag-i])
			unrestricted.Set(t, lag+i, x[t+lag-i])
		}
	}

	ssrRestricted, err := olsSSR(restricted, target)
	if err != nil {
		return 0, err
	}
	ssrUnrestricted, err := olsSSR(unrestricted, target)
	if err != nil {
		return 0, err
	}
	if ssrUnrestricted <= 0 {
		return 0, fmt.Errorf("degenerate regression: zero residual sum of squares")
	}

	f := ((ssrRestricted - ssrUnrestricted) / float64(lag)) / (ssrUnrestricted / float64(dfDenom))
	if f < 0 {
		f = 0
	}

	fDist := distuv.F{D1: float64(lag), D2: float64(dfDenom)}
	return fDist.Survival(f), nil
}

// olsSSR fits ordinary least squares via QR and returns the residual sum of
// squares. A rank-deficient design matrix surfaces as an error.
func olsSSR(design *mat.Dense, target []float64) (float64, error) {
	rows, cols := design.Dims()
	yVec := mat.NewVecDense(rows, target)

	var qr mat.QR
	qr.Factorize(design)

	beta := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(beta, false, yVec); err != nil {
		return 0, fmt.Errorf("singular design matrix: %v", err)
	}

	ssr := 0.0
	for t := 0; t < rows; t++ {
		fitted := 0.0
		for j := 0; j < cols; j++ {
			fitted += design.At(t, j) * beta.AtVec(j)
		}
		resid := target[t] - fitted
		if math.IsNaN(resid) || math.IsInf(resid, 0) {
			return 0, fmt.Errorf("non-finite residual in regression")
		}
		ssr += resid * resid
	}
	return ssr, nil
}
