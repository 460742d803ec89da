package senses

import (
	"errors"
	"math"
	"testing"
	"time"

	"edgefinder/domain/core"
	"edgefinder/models"
)

// implantedMarket builds a flat price series that jumps on each event day, so
// every event window holds one known positive return.
func implantedMarket(base time.Time, days, eventEvery int) ([]time.Time, []models.MarketBar) {
	var eventTimes []time.Time
	var bars []models.MarketBar

	eventDays := map[int]float64{}
	k := 0
	for d := eventEvery; d < days; d += eventEvery {
		// Jump sizes vary slightly so the sample has nonzero variance.
		eventDays[d] = 0.01 + 0.002*math.Sin(float64(k))
		eventTimes = append(eventTimes, base.AddDate(0, 0, d).Add(10*time.Hour))
		k++
	}

	price := 100.0
	for d := 0; d < days; d++ {
		if jump, ok := eventDays[d]; ok {
			price *= 1 + jump
		}
		bars = append(bars, models.MarketBar{
			Asset:     "SPY",
			Timestamp: base.AddDate(0, 0, d).Add(21 * time.Hour),
			Close:     price,
		})
	}
	return eventTimes, bars
}

func TestEventStudy_ImplantedPositiveReturns(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	eventTimes, bars := implantedMarket(base, 360, 10)
	if len(eventTimes) < 30 {
		t.Fatalf("fixture too small: %d events", len(eventTimes))
	}

	engine := NewEngine(0.05, 30)
	result, err := engine.EventStudy(eventTimes, bars, 1, 1)
	if err != nil {
		t.Fatalf("EventStudy failed: %v", err)
	}

	if result.HitRate != 1.0 {
		t.Errorf("Every window holds a positive jump; expected hit rate 1.0, got %.4f", result.HitRate)
	}
	if result.MeanReturn < 0.005 {
		t.Errorf("Expected mean return near the implanted jump, got %.6f", result.MeanReturn)
	}
	if !result.Significant {
		t.Errorf("Expected significant result, p=%.6f", result.PValue)
	}
	if result.Edge <= 0 {
		t.Errorf("Expected positive edge, got %.4f", result.Edge)
	}
	if result.SampleSize != len(eventTimes) {
		t.Errorf("Expected %d windows, got %d", len(eventTimes), result.SampleSize)
	}
	if result.PreWindow != 1 || result.PostWindow != 1 {
		t.Errorf("Window echo wrong: pre=%d post=%d", result.PreWindow, result.PostWindow)
	}
}

func TestEventStudy_DefaultWindows(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	eventTimes, bars := implantedMarket(base, 400, 11)

	engine := NewEngine(0.05, 30)
	result, err := engine.EventStudy(eventTimes, bars, 0, 0)
	if err != nil {
		t.Fatalf("EventStudy failed: %v", err)
	}
	if result.PreWindow != DefaultPreWindow || result.PostWindow != DefaultPostWindow {
		t.Errorf("Expected default windows %d/%d, got %d/%d",
			DefaultPreWindow, DefaultPostWindow, result.PreWindow, result.PostWindow)
	}
}

func TestEventStudy_TooFewEvents(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	eventTimes, bars := implantedMarket(base, 100, 10)

	engine := NewEngine(0.05, 30)
	_, err := engine.EventStudy(eventTimes, bars, 1, 1)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("Expected insufficient data error, got %v", err)
	}
}

func TestEventStudy_EventsOutsideMarketData(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	_, bars := implantedMarket(base, 360, 10)

	// Events far after the last bar contribute no valid windows.
	var eventTimes []time.Time
	for i := 0; i < 40; i++ {
		eventTimes = append(eventTimes, base.AddDate(2, 0, i))
	}

	engine := NewEngine(0.05, 30)
	_, err := engine.EventStudy(eventTimes, bars, 1, 1)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("Expected insufficient data error for empty windows, got %v", err)
	}
}
