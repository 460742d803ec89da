package temporal

import (
	"math"
	"sort"
	"time"

	"edgefinder/domain/core"
	"edgefinder/models"
)

// ============================================================================
// TEMPORAL ALIGNMENT LAYER
// ============================================================================
// This package turns raw event and market rows into equal-length, same-index
// daily arrays usable by any statistical test. Events are bucketed by calendar
// date, market bars are reduced to a last-close-per-day series with
// day-over-day returns, and the two tables are joined with inner-join
// semantics: a day survives only if both sides have data.
// ============================================================================

// SignalSource records which event-derived signal survived alignment.
type SignalSource string

const (
	SignalValue SignalSource = "value" // per-day mean of event values
	SignalCount SignalSource = "count" // per-day event count (fallback)
)

// AlignedSeries pairs an event-derived signal X with a market-return signal Y
// on a shared daily index. Ephemeral: it exists for one test invocation only.
// Invariant: len(Dates) == len(X) == len(Y).
type AlignedSeries struct {
	Dates  []time.Time
	X      []float64
	Y      []float64
	Signal SignalSource
}

// Length returns the number of surviving aligned days.
func (a *AlignedSeries) Length() int {
	return len(a.Dates)
}

type eventDay struct {
	sum    float64
	valued int // events that carried a numeric value
	count  int
}

// AlignDaily builds the shared daily index from raw rows.
//
// The event signal is the per-day mean value unless every surviving day's mean
// is undefined, in which case it falls back to the per-day event count. Days
// whose derived return is undefined (the first market day) are dropped.
// Returns an insufficient-data error when fewer than minSampleSize days survive.
func AlignDaily(events []models.Event, bars []models.MarketBar, minSampleSize int) (*AlignedSeries, error) {
	eventDays := groupEventsByDay(events)
	dates, returns := dailyReturns(bars)

	type joinedRow struct {
		date      time.Time
		mean      float64 // NaN when no event that day carried a value
		count     float64
		marketRet float64
	}

	joined := make([]joinedRow, 0, len(dates))
	for i, date := range dates {
		day, ok := eventDays[date]
		if !ok {
			continue
		}
		mean := math.NaN()
		if day.valued > 0 {
			mean = day.sum / float64(day.valued)
		}
		joined = append(joined, joinedRow{
			date:      date,
			mean:      mean,
			count:     float64(day.count),
			marketRet: returns[i],
		})
	}

	// Fall back to counts only when no day has a defined mean value.
	allUndefined := true
	for _, row := range joined {
		if !math.IsNaN(row.mean) {
			allUndefined = false
			break
		}
	}

	aligned := &AlignedSeries{Signal: SignalValue}
	if allUndefined {
		aligned.Signal = SignalCount
	}

	for _, row := range joined {
		x := row.mean
		if aligned.Signal == SignalCount {
			x = row.count
		} else if math.IsNaN(x) {
			continue // value signal chosen, but this day had no valued events
		}
		aligned.Dates = append(aligned.Dates, row.date)
		aligned.X = append(aligned.X, x)
		aligned.Y = append(aligned.Y, row.marketRet)
	}

	if aligned.Length() < minSampleSize {
		return nil, core.NewInsufficientDataError("aligned series", aligned.Length(), minSampleSize)
	}

	return aligned, nil
}

// groupEventsByDay buckets events into calendar days (UTC), accumulating the
// per-day value sum and counts.
func groupEventsByDay(events []models.Event) map[time.Time]*eventDay {
	days := make(map[time.Time]*eventDay)
	for _, event := range events {
		date := DayOf(event.Timestamp)
		day, ok := days[date]
		if !ok {
			day = &eventDay{}
			days[date] = day
		}
		day.count++
		if event.Value != nil && !math.IsNaN(*event.Value) {
			day.sum += *event.Value
			day.valued++
		}
	}
	return days
}

// dailyReturns reduces bars to one close per calendar day (last observation
// wins) and computes day-over-day percentage returns against the previous
// surviving market day. The first day's return is undefined and excluded.
func dailyReturns(bars []models.MarketBar) ([]time.Time, []float64) {
	closes := make(map[time.Time]float64)
	for _, bar := range sortedBars(bars) {
		closes[DayOf(bar.Timestamp)] = bar.Close
	}

	days := make([]time.Time, 0, len(closes))
	for day := range closes {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	dates := make([]time.Time, 0, len(days))
	returns := make([]float64, 0, len(days))
	for i := 1; i < len(days); i++ {
		prev := closes[days[i-1]]
		if prev == 0 {
			continue
		}
		dates = append(dates, days[i])
		returns = append(returns, closes[days[i]]/prev-1)
	}

	return dates, returns
}

// BarReturns computes per-observation returns over raw bars sorted by
// timestamp. Used by the event study, which windows on observation timestamps
// rather than the daily grid. The first observation has no return.
func BarReturns(bars []models.MarketBar) ([]time.Time, []float64) {
	sorted := sortedBars(bars)
	timestamps := make([]time.Time, 0, len(sorted))
	returns := make([]float64, 0, len(sorted))
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Close == 0 {
			continue
		}
		timestamps = append(timestamps, sorted[i].Timestamp)
		returns = append(returns, sorted[i].Close/sorted[i-1].Close-1)
	}
	return timestamps, returns
}

// DayOf truncates a timestamp to its UTC calendar date.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedBars(bars []models.MarketBar) []models.MarketBar {
	sorted := make([]models.MarketBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
