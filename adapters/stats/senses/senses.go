// Package senses is the statistical test engine. Each test is a pure function
// from aligned numeric arrays (plus parameters) to a structured result; none
// perform I/O. The Engine carries the two knobs every test shares: the
// significance level and the minimum sample size.
package senses

import (
	"encoding/json"
	"math"
	"sort"

	"edgefinder/domain/core"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Engine evaluates statistical tests against a fixed configuration.
type Engine struct {
	alpha         float64
	minSampleSize int
}

// NewEngine creates a test engine with the given significance level and
// minimum sample size.
func NewEngine(alpha float64, minSampleSize int) *Engine {
	return &Engine{alpha: alpha, minSampleSize: minSampleSize}
}

// Alpha returns the configured significance level.
func (e *Engine) Alpha() float64 {
	return e.alpha
}

// MinSampleSize returns the configured sample-size floor.
func (e *Engine) MinSampleSize() int {
	return e.minSampleSize
}

// validatePair enforces the shared preconditions for two-series tests.
func (e *Engine) validatePair(x, y []float64) error {
	if len(x) != len(y) {
		return core.ErrLengthMismatch
	}
	if len(x) < e.minSampleSize {
		return core.NewInsufficientDataError("series", len(x), e.minSampleSize)
	}
	return nil
}

// pearson computes the Pearson correlation coefficient.
func pearson(x, y []float64) float64 {
	return stat.Correlation(x, y, nil)
}

// correlationPValue converts a correlation coefficient to a two-tailed p-value
// via the exact t-distribution with n-2 degrees of freedom.
func correlationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	if r >= 1 || r <= -1 {
		return 0.0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * tDist.Survival(math.Abs(t))
}

// ranks converts values to ranks, averaging ties.
func ranks(data []float64) []float64 {
	n := len(data)
	type pair struct {
		value float64
		index int
	}

	pairs := make([]pair, n)
	for i, v := range data {
		pairs[i] = pair{value: v, index: i}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

	out := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			out[pairs[k].index] = avgRank
		}
		i = j
	}
	return out
}

// asPayload converts a typed result into the generic map persisted as the
// hypothesis test_results payload.
func asPayload(result interface{}) map[string]interface{} {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	payload := map[string]interface{}{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return payload
}
