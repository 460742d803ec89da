package senses

import (
	"fmt"
	"math"

	"edgefinder/domain/core"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// StationarityResult is the output of StationarityTest.
type StationarityResult struct {
	ADFStatistic    float64            `json:"adf_statistic"`
	PValue          float64            `json:"p_value"`
	UsedLag         int                `json:"used_lag"`
	NumObservations int                `json:"num_observations"`
	CriticalValues  map[string]float64 `json:"critical_values"`
	IsStationary    bool               `json:"is_stationary"`
}

// Payload returns the result as a generic persistence map.
func (r *StationarityResult) Payload() map[string]interface{} {
	return asPayload(r)
}

// StationarityTest runs an augmented Dickey-Fuller test with a constant term.
// The lag order is selected automatically by AIC over 0..floor(12*(n/100)^0.25),
// all candidates compared on the common sample. P-values use the MacKinnon
// response-surface approximation for the constant-only case.
func (e *Engine) StationarityTest(x []float64) (*StationarityResult, error) {
	n := len(x)
	if n < e.minSampleSize {
		return nil, core.NewInsufficientDataError("series", n, e.minSampleSize)
	}

	maxLag := int(math.Floor(12 * math.Pow(float64(n)/100, 0.25)))
	if maxLag > n/2-2 {
		maxLag = n/2 - 2
	}
	if maxLag < 0 {
		maxLag = 0
	}

	// Candidate lags compete on the sample trimmed to the largest lag.
	bestLag := 0
	bestAIC := math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		_, _, aic, _, err := adfRegression(x, lag, maxLag)
		if err != nil {
			continue
		}
		if aic < bestAIC {
			bestAIC = aic
			bestLag = lag
		}
	}

	// Refit the chosen lag on its own full sample.
	tau, nobs, _, _, err := adfRegression(x, bestLag, bestLag)
	if err != nil {
		return nil, fmt.Errorf("%w: adf regression: %v", core.ErrComputationFailed, err)
	}

	pValue := mackinnonPValue(tau)

	return &StationarityResult{
		ADFStatistic:    tau,
		PValue:          pValue,
		UsedLag:         bestLag,
		NumObservations: nobs,
		CriticalValues:  mackinnonCriticalValues(nobs),
		IsStationary:    pValue < e.alpha,
	}, nil
}

// adfRegression fits dy_t = c + rho*y_{t-1} + sum_i g_i*dy_{t-i} + e_t with the
// sample starting at startLag+1 differences, and returns the tau statistic for
// rho, the observation count, and the AIC of the fit.
func adfRegression(x []float64, lag, startLag int) (tau float64, nobs int, aic float64, ssr float64, err error) {
	n := len(x)
	diffs := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diffs[i-1] = x[i] - x[i-1]
	}

	// diffs index t corresponds to dy at series position t+1.
	first := startLag // first usable diff index
	nobs = len(diffs) - first
	cols := lag + 2
	if nobs <= cols {
		return 0, 0, 0, 0, fmt.Errorf("not enough observations for lag %d", lag)
	}

	design := mat.NewDense(nobs, cols, nil)
	target := make([]float64, nobs)
	for t := 0; t < nobs; t++ {
		idx := first + t
		target[t] = diffs[idx]
		design.Set(t, 0, 1)
		design.Set(t, 1, x[idx]) // y_{t-1} for this difference
		for i := 1; i <= lag; i++ {
			design.Set(t, 1+i, diffs[idx-i])
		}
	}

	yVec := mat.NewVecDense(nobs, target)
	var qr mat.QR
	qr.Factorize(design)
	beta := mat.NewVecDense(cols, nil)
	if solveErr := qr.SolveVecTo(beta, false, yVec); solveErr != nil {
		return 0, 0, 0, 0, fmt.Errorf("singular adf design matrix: %v", solveErr)
	}

	ssr = 0.0
	for t := 0; t < nobs; t++ {
		fitted := 0.0
		for j := 0; j < cols; j++ {
			fitted += design.At(t, j) * beta.AtVec(j)
		}
		resid := target[t] - fitted
		ssr += resid * resid
	}
	if ssr <= 0 {
		return 0, 0, 0, 0, fmt.Errorf("degenerate adf regression")
	}

	// Standard error of the y_{t-1} coefficient via (X'X)^{-1}.
	var xtx, xtxInv mat.Dense
	xtx.Mul(design.T(), design)
	if invErr := xtxInv.Inverse(&xtx); invErr != nil {
		return 0, 0, 0, 0, fmt.Errorf("adf design matrix not invertible: %v", invErr)
	}
	sigma2 := ssr / float64(nobs-cols)
	se := math.Sqrt(sigma2 * xtxInv.At(1, 1))
	if se == 0 || math.IsNaN(se) {
		return 0, 0, 0, 0, fmt.Errorf("zero standard error in adf regression")
	}

	tau = beta.AtVec(1) / se
	aic = float64(nobs)*math.Log(ssr/float64(nobs)) + 2*float64(cols)
	return tau, nobs, aic, ssr, nil
}

// MacKinnon (1994) response-surface coefficients, constant-only regression.
var (
	mackinnonTauStar = -1.61
	mackinnonTauMin  = -18.83
	mackinnonTauMax  = 2.74
	mackinnonSmallP  = []float64{2.1659, 1.4412, 0.038269}
	mackinnonLargeP  = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

func mackinnonPValue(tau float64) float64 {
	if tau <= mackinnonTauMin {
		return 0.0
	}
	if tau >= mackinnonTauMax {
		return 1.0
	}
	coeffs := mackinnonLargeP
	if tau <= mackinnonTauStar {
		coeffs = mackinnonSmallP
	}
	z := 0.0
	for i, c := range coeffs {
		z += c * math.Pow(tau, float64(i))
	}
	return distuv.UnitNormal.CDF(z)
}

// mackinnonCriticalValues returns the finite-sample 1%/5%/10% thresholds
// (MacKinnon 2010, constant case).
func mackinnonCriticalValues(nobs int) map[string]float64 {
	n := float64(nobs)
	return map[string]float64{
		"1%":  -3.43035 - 6.5393/n - 16.786/(n*n) - 79.433/(n*n*n),
		"5%":  -2.86154 - 2.8903/n - 4.234/(n*n) - 40.040/(n*n*n),
		"10%": -2.56677 - 1.5384/n - 2.809/(n*n),
	}
}
