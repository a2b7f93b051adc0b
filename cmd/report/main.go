// Package main provides the report entry point: re-audit trades already
// persisted in storage and regenerate the output files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"trade-audit-lab/internal/config"
	"trade-audit-lab/internal/logging"
	"trade-audit-lab/internal/pipeline"
	"trade-audit-lab/internal/storage"
	"trade-audit-lab/internal/storage/clickhouse"
	"trade-audit-lab/internal/storage/memory"
	pgstore "trade-audit-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	outputDir := flag.String("output-dir", "", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for run history (optional)")
	logFile := flag.String("log-file", "report.log", "Log file path")
	flag.Parse()

	logger, err := logging.New(&logging.Config{LogFile: *logFile, MaxSizeMB: 100, MaxAgeDays: 7, MaxBackups: 3, Compress: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
		}
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.ClickhouseDSN = *clickhouseDSN
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if cfg.PostgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Usage: report --postgres-dsn <dsn> [flags]; reporting needs persisted trades")
		os.Exit(2)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pool.Close()
	tradeStore := pgstore.NewTradeStore(pool)

	var snapshotStore storage.MetricsSnapshotStore = memory.NewMetricsSnapshotStore()
	if cfg.ClickhouseDSN != "" {
		conn, err := clickhouse.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			logger.Fatal("failed to connect clickhouse", zap.Error(err))
		}
		defer conn.Close()
		snapshotStore = clickhouse.NewMetricsSnapshotStore(conn)
	}

	p := pipeline.New(cfg, tradeStore, snapshotStore, logger)
	result, err := p.RunFromStore(ctx, cfg.OutputDir)
	if err != nil {
		logger.Fatal("report run failed", zap.Error(err))
	}

	fmt.Println("=== Audit Report ===")
	fmt.Printf("Trades:     %d (%d closed, %d open)\n",
		result.Package.TotalTrades, result.Package.ClosedCount, result.Package.OpenCount)
	fmt.Printf("Confidence: %.4f\n", result.Package.Confidence)
	fmt.Printf("Decision:   %s\n", result.Decision.Decision)
	fmt.Printf("Output:     %s\n", cfg.OutputDir)
}
