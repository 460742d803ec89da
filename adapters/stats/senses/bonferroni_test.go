package senses

import (
	"math"
	"testing"
)

func TestApplyBonferroni(t *testing.T) {
	pValues := []float64{0.001, 0.02, 0.04, 0.6}
	result, err := ApplyBonferroni(pValues, 0.05)
	if err != nil {
		t.Fatalf("ApplyBonferroni failed: %v", err)
	}

	if result.CorrectionFactor != 4 {
		t.Errorf("Expected correction factor 4, got %d", result.CorrectionFactor)
	}

	want := []float64{0.004, 0.08, 0.16, 1.0}
	for i, c := range result.CorrectedPValues {
		if math.Abs(c-want[i]) > 1e-12 {
			t.Errorf("corrected[%d]: expected %.4f, got %.4f", i, want[i], c)
		}
	}

	// Only 0.001 survives four-way correction at alpha 0.05.
	wantReject := []bool{true, false, false, false}
	for i, r := range result.RejectNull {
		if r != wantReject[i] {
			t.Errorf("reject[%d]: expected %v, got %v", i, wantReject[i], r)
		}
	}
	if result.NumSignificant != 1 {
		t.Errorf("Expected 1 significant after correction, got %d", result.NumSignificant)
	}
}

func TestApplyBonferroni_CapsAtOne(t *testing.T) {
	result, err := ApplyBonferroni([]float64{0.3, 0.5, 0.9}, 0.05)
	if err != nil {
		t.Fatalf("ApplyBonferroni failed: %v", err)
	}
	for i, c := range result.CorrectedPValues {
		if c > 1 {
			t.Errorf("corrected[%d] exceeds 1: %.4f", i, c)
		}
	}
}

func TestApplyBonferroni_EmptyInput(t *testing.T) {
	if _, err := ApplyBonferroni(nil, 0.05); err == nil {
		t.Error("Expected error for empty p-value family")
	}
}
