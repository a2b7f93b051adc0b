// Package main provides the ledger ingest entry point: parse, classify,
// validate, and persist a trade ledger without generating reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"trade-audit-lab/internal/classify"
	"trade-audit-lab/internal/config"
	"trade-audit-lab/internal/consistency"
	"trade-audit-lab/internal/ledger"
	"trade-audit-lab/internal/logging"
	"trade-audit-lab/internal/storage"
	"trade-audit-lab/internal/storage/memory"
	pgstore "trade-audit-lab/internal/storage/postgres"
)

func main() {
	ledgerPath := flag.String("ledger", "", "Path to the trade ledger CSV")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (empty for in-memory dry run)")
	logFile := flag.String("log-file", "ingest.log", "Log file path")
	flag.Parse()

	if *ledgerPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: ingest --ledger <file.csv> [--postgres-dsn <dsn>]")
		os.Exit(2)
	}

	logger, err := logging.New(&logging.Config{LogFile: *logFile, MaxSizeMB: 100, MaxAgeDays: 7, MaxBackups: 3, Compress: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	cfg := config.Default()

	var store storage.TradeStore = memory.NewTradeStore()
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pool.Close()
		store = pgstore.NewTradeStore(pool)
	} else {
		logger.Warn("no postgres DSN given, running dry against in-memory storage")
	}

	loaded, err := ledger.NewLoader(logger).LoadFile(*ledgerPath)
	if err != nil {
		logger.Fatal("failed to load ledger", zap.String("path", *ledgerPath), zap.Error(err))
	}

	classifier := classify.New(cfg.Epsilon)
	for _, rec := range loaded.Records {
		if !rec.Closed() {
			continue
		}
		outcome, err := classifier.Classify(rec.StoredPnL)
		if err != nil {
			logger.Fatal("classification failed", zap.String("trade_id", rec.TradeID), zap.Error(err))
		}
		rec.Outcome = outcome
	}

	validator := consistency.New(cfg.PnLTolerance, cfg.ReturnTolerance, logger)
	checked, err := validator.ValidateBatch(loaded.Records)
	if err != nil {
		logger.Fatal("consistency validation failed", zap.Error(err))
	}

	if err := store.InsertBulk(ctx, loaded.Records); err != nil {
		logger.Fatal("failed to store trades", zap.Error(err))
	}

	fmt.Println("=== Ledger Ingest ===")
	fmt.Printf("Parsed:    %d rows\n", len(loaded.Records))
	fmt.Printf("Rejected:  %d rows\n", len(loaded.RowErrors))
	fmt.Printf("Validated: %d closed trades\n", checked)
	for _, re := range loaded.RowErrors {
		fmt.Printf("  - %s\n", re.Error())
	}
}
