package senses

import (
	"errors"
	"math/rand"
	"testing"

	"edgefinder/domain/core"
)

func TestStationarityTest_WhiteNoiseIsStationary(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	n := 250
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
	}

	engine := NewEngine(0.05, 30)
	result, err := engine.StationarityTest(x)
	if err != nil {
		t.Fatalf("StationarityTest failed: %v", err)
	}

	if !result.IsStationary {
		t.Errorf("White noise must test stationary: tau=%.4f p=%.6f", result.ADFStatistic, result.PValue)
	}
	if result.ADFStatistic > -5 {
		t.Errorf("White noise tau should be strongly negative, got %.4f", result.ADFStatistic)
	}
	if result.NumObservations <= 0 || result.NumObservations >= n {
		t.Errorf("Implausible observation count %d", result.NumObservations)
	}
}

func TestStationarityTest_DriftingWalkIsNot(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	n := 250
	x := make([]float64, n)
	level := 0.0
	for i := range x {
		level += 0.2 + rng.NormFloat64()
		x[i] = level
	}

	engine := NewEngine(0.05, 30)
	result, err := engine.StationarityTest(x)
	if err != nil {
		t.Fatalf("StationarityTest failed: %v", err)
	}

	if result.IsStationary {
		t.Errorf("Drifting walk must not test stationary: tau=%.4f p=%.6f", result.ADFStatistic, result.PValue)
	}
}

func TestStationarityTest_CriticalValuesOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	x := make([]float64, 120)
	for i := range x {
		x[i] = rng.NormFloat64()
	}

	engine := NewEngine(0.05, 30)
	result, err := engine.StationarityTest(x)
	if err != nil {
		t.Fatalf("StationarityTest failed: %v", err)
	}

	cv := result.CriticalValues
	if !(cv["1%"] < cv["5%"] && cv["5%"] < cv["10%"]) {
		t.Errorf("Critical values must tighten with confidence: %v", cv)
	}
	if cv["5%"] > -2.5 || cv["5%"] < -3.2 {
		t.Errorf("5%% critical value outside the plausible range: %.4f", cv["5%"])
	}
}

func TestStationarityTest_TooShort(t *testing.T) {
	engine := NewEngine(0.05, 30)
	_, err := engine.StationarityTest(make([]float64, 10))
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("Expected insufficient data error, got %v", err)
	}
}

func TestMackinnonPValue_Monotonic(t *testing.T) {
	taus := []float64{-10, -5, -3, -2, -1, 0, 1}
	prev := -1.0
	for _, tau := range taus {
		p := mackinnonPValue(tau)
		if p < 0 || p > 1 {
			t.Errorf("tau=%.1f: p out of bounds %.6f", tau, p)
		}
		if p < prev {
			t.Errorf("p-value must not decrease as tau rises: tau=%.1f p=%.6f prev=%.6f", tau, p, prev)
		}
		prev = p
	}

	if p := mackinnonPValue(-20); p != 0 {
		t.Errorf("tau below table minimum must clamp to 0, got %.6f", p)
	}
	if p := mackinnonPValue(3); p != 1 {
		t.Errorf("tau above table maximum must clamp to 1, got %.6f", p)
	}
}
