// The worker evaluates every pending hypothesis once and exits, optionally
// exporting discovered relationships as a spreadsheet report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"edgefinder/adapters/excel"
	"edgefinder/adapters/postgres"
	"edgefinder/adapters/stats/senses"
	"edgefinder/app"
	"edgefinder/internal"
	"edgefinder/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	reportPath := flag.String("report", "", "write an xlsx relationship report to this path after the run")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	db, err := postgres.Connect(cfg.Database.URL)
	if err != nil {
		logger.Error("connecting to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	ledger := postgres.NewLedger(db)
	engine := senses.NewEngine(cfg.Analysis.SignificanceLevel, cfg.Analysis.MinSampleSize)
	runner := app.NewRunner(ledger, engine, cfg.Analysis, logger)

	ctx := context.Background()
	report, err := runner.RunAllPending(ctx)
	if err != nil {
		logger.Error("batch run: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Completed: %d success, %d failed\n", len(report.Success), len(report.Failed))
	for _, failure := range report.Failed {
		fmt.Printf("  failed %s: %s\n", failure.ID, failure.Error)
	}

	if *reportPath != "" {
		rels, err := ledger.ListRelationships(ctx, 0)
		if err != nil {
			logger.Error("listing relationships: %v", err)
			os.Exit(1)
		}
		if err := excel.WriteRelationshipReport(*reportPath, rels); err != nil {
			logger.Error("writing report: %v", err)
			os.Exit(1)
		}
		logger.Info("wrote %d relationships to %s", len(rels), *reportPath)
	}
}
