// The api binary serves the analysis worker over HTTP for the orchestrating
// backend: hypothesis runs, ad-hoc statistical tests, and sentiment scoring.
package main

import (
	"os"

	"edgefinder/adapters/postgres"
	"edgefinder/adapters/sentiment"
	"edgefinder/adapters/stats/senses"
	"edgefinder/app"
	"edgefinder/internal"
	"edgefinder/internal/config"
	"edgefinder/ui"

	"github.com/joho/godotenv"
)

func main() {
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
	scorer := sentiment.NewClient(cfg.Sentiment)

	server := ui.NewServer(runner, engine, scorer, logger)
	if err := server.ListenAndServe(":" + cfg.Server.Port); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
