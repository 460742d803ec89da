package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/edgefinder_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analysis.MinSampleSize != 30 {
		t.Errorf("Expected default min sample size 30, got %d", cfg.Analysis.MinSampleSize)
	}
	if cfg.Analysis.SignificanceLevel != 0.05 {
		t.Errorf("Expected default alpha 0.05, got %f", cfg.Analysis.SignificanceLevel)
	}
	if cfg.Analysis.BatchWorkers != 1 {
		t.Errorf("Expected sequential batches by default, got %d workers", cfg.Analysis.BatchWorkers)
	}
	if cfg.Analysis.LookbackDaysDefault != 365 {
		t.Errorf("Expected default lookback 365, got %d", cfg.Analysis.LookbackDaysDefault)
	}
	if cfg.Server.Port != "8001" {
		t.Errorf("Expected default port 8001, got %s", cfg.Server.Port)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/edgefinder_test")
	t.Setenv("MIN_SAMPLE_SIZE", "50")
	t.Setenv("SIGNIFICANCE_LEVEL", "0.01")
	t.Setenv("BATCH_WORKERS", "4")
	t.Setenv("BONFERRONI_CORRECTION", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analysis.MinSampleSize != 50 {
		t.Errorf("Expected min sample size 50, got %d", cfg.Analysis.MinSampleSize)
	}
	if cfg.Analysis.SignificanceLevel != 0.01 {
		t.Errorf("Expected alpha 0.01, got %f", cfg.Analysis.SignificanceLevel)
	}
	if cfg.Analysis.BatchWorkers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Analysis.BatchWorkers)
	}
	if cfg.Analysis.BonferroniCorrection {
		t.Error("Expected bonferroni correction disabled")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"DATABASE_URL": ""},
			wantErr: "DATABASE_URL",
		},
		{
			name: "min sample size too small",
			env: map[string]string{
				"DATABASE_URL":    "postgres://localhost/x",
				"MIN_SAMPLE_SIZE": "1",
			},
			wantErr: "MIN_SAMPLE_SIZE",
		},
		{
			name: "alpha out of range",
			env: map[string]string{
				"DATABASE_URL":       "postgres://localhost/x",
				"SIGNIFICANCE_LEVEL": "1.5",
			},
			wantErr: "SIGNIFICANCE_LEVEL",
		},
		{
			name: "zero workers",
			env: map[string]string{
				"DATABASE_URL":  "postgres://localhost/x",
				"BATCH_WORKERS": "0",
			},
			wantErr: "BATCH_WORKERS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
