package senses

import (
	"math"
	"time"

	"edgefinder/adapters/stats/temporal"
	"edgefinder/domain/core"
	"edgefinder/models"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Default event study windows, in days around each event.
const (
	DefaultPreWindow  = 5
	DefaultPostWindow = 10
)

// EventStudyResult is the output of EventStudy.
type EventStudyResult struct {
	MeanReturn  float64 `json:"mean_return"`
	StdReturn   float64 `json:"std_return"`
	TStatistic  float64 `json:"t_statistic"`
	PValue      float64 `json:"p_value"`
	HitRate     float64 `json:"hit_rate"`
	Edge        float64 `json:"edge"`
	SampleSize  int     `json:"sample_size"`
	Significant bool    `json:"significant"`
	PreWindow   int     `json:"pre_window"`
	PostWindow  int     `json:"post_window"`
}

// Payload returns the result as a generic persistence map.
func (r *EventStudyResult) Payload() map[string]interface{} {
	return asPayload(r)
}

// EventStudy measures the compounded return in a window around each event and
// tests the collected per-event returns against a zero mean (one-sample t-test).
// An event contributes one cumulative-return observation when its window holds
// at least one valid daily return.
func (e *Engine) EventStudy(eventTimes []time.Time, bars []models.MarketBar, preWindow, postWindow int) (*EventStudyResult, error) {
	if len(eventTimes) < e.minSampleSize {
		return nil, core.NewInsufficientDataError("events", len(eventTimes), e.minSampleSize)
	}
	if preWindow <= 0 {
		preWindow = DefaultPreWindow
	}
	if postWindow <= 0 {
		postWindow = DefaultPostWindow
	}

	returnTimes, returns := temporal.BarReturns(bars)

	cumulative := make([]float64, 0, len(eventTimes))
	for _, eventTime := range eventTimes {
		windowStart := eventTime.Add(-time.Duration(preWindow) * 24 * time.Hour)
		windowEnd := eventTime.Add(time.Duration(postWindow) * 24 * time.Hour)

		compounded := 1.0
		observed := 0
		for i, rt := range returnTimes {
			if rt.Before(windowStart) || rt.After(windowEnd) {
				continue
			}
			compounded *= 1 + returns[i]
			observed++
		}
		if observed > 0 {
			cumulative = append(cumulative, compounded-1)
		}
	}

	if len(cumulative) < e.minSampleSize {
		return nil, core.NewInsufficientDataError("valid event windows", len(cumulative), e.minSampleSize)
	}

	mean, _ := stats.Mean(cumulative)
	stdPop, _ := stats.StandardDeviation(cumulative)
	stdSample, _ := stats.StandardDeviationSample(cumulative)

	n := len(cumulative)
	tStat := 0.0
	pValue := 1.0
	if stdSample > 0 {
		tStat = mean / (stdSample / math.Sqrt(float64(n)))
		tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
		pValue = 2 * tDist.Survival(math.Abs(tStat))
	}

	hits := 0
	for _, r := range cumulative {
		if r > 0 {
			hits++
		}
	}

	edge := 0.0
	if stdPop > 0 {
		edge = mean / stdPop
	}

	return &EventStudyResult{
		MeanReturn:  mean,
		StdReturn:   stdPop,
		TStatistic:  tStat,
		PValue:      pValue,
		HitRate:     float64(hits) / float64(n),
		Edge:        edge,
		SampleSize:  n,
		Significant: pValue < e.alpha,
		PreWindow:   preWindow,
		PostWindow:  postWindow,
	}, nil
}
