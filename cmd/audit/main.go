// Package main provides the full audit entry point.
// Executes: load -> classify -> validate -> calculate -> self-check -> report.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"trade-audit-lab/internal/config"
	"trade-audit-lab/internal/logging"
	"trade-audit-lab/internal/observability"
	"trade-audit-lab/internal/pipeline"
	"trade-audit-lab/internal/storage"
	"trade-audit-lab/internal/storage/clickhouse"
	"trade-audit-lab/internal/storage/memory"
	pgstore "trade-audit-lab/internal/storage/postgres"
)

func main() {
	ledgerPath := flag.String("ledger", "", "Path to the trade ledger CSV")
	configPath := flag.String("config", "", "Path to config file (optional)")
	outputDir := flag.String("output-dir", "", "Output directory for generated files")
	fixtures := flag.Bool("fixtures", false, "Audit the built-in fixture ledger")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (empty for in-memory)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for run archive (optional)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	logFile := flag.String("log-file", "audit.log", "Log file path")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	logger, err := logging.New(&logging.Config{
		LogFile:     *logFile,
		MaxSizeMB:   100,
		MaxAgeDays:  7,
		MaxBackups:  3,
		Compress:    true,
		Development: *debug,
	})
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling run", zap.String("signal", sig.String()))
		cancel()
	}()

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	path := *ledgerPath
	if *fixtures {
		path = filepath.Join(os.TempDir(), "fixture_ledger.csv")
		if err := pipeline.WriteFixtureLedger(path); err != nil {
			logger.Fatal("failed to write fixture ledger", zap.Error(err))
		}
		logger.Info("using fixture ledger", zap.String("path", path))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Usage: audit --ledger <file.csv> [flags], or audit --fixtures")
		os.Exit(2)
	}

	tradeStore, snapshotStore, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect storage", zap.Error(err))
	}
	defer cleanup()

	p := pipeline.New(cfg, tradeStore, snapshotStore, logger)
	result, err := p.Run(ctx, path, cfg.OutputDir)
	if err != nil {
		logger.Fatal("audit run failed", zap.Error(err))
	}

	fmt.Println("=== Trade Audit ===")
	fmt.Printf("Trades:       %d (%d closed, %d open)\n",
		result.Package.TotalTrades, result.Package.ClosedCount, result.Package.OpenCount)
	fmt.Printf("Rejected:     %d of %d rows\n", result.Quality.RejectedRows, result.Quality.TotalRows)
	fmt.Printf("Confidence:   %.4f\n", result.Package.Confidence)
	fmt.Printf("Decision:     %s\n", result.Decision.Decision)
	fmt.Printf("Output:       %s\n", cfg.OutputDir)
}

// buildStores selects storage backends from config. In-memory is the
// default; Postgres holds trades, ClickHouse the run archive.
func buildStores(ctx context.Context, cfg *config.Config) (storage.TradeStore, storage.MetricsSnapshotStore, func(), error) {
	cleanup := func() {}

	var tradeStore storage.TradeStore = memory.NewTradeStore()
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, cleanup, err
		}
		tradeStore = pgstore.NewTradeStore(pool)
		cleanup = pool.Close
	}

	var snapshotStore storage.MetricsSnapshotStore = memory.NewMetricsSnapshotStore()
	if cfg.ClickhouseDSN != "" {
		conn, err := clickhouse.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, nil, cleanup, err
		}
		snapshotStore = clickhouse.NewMetricsSnapshotStore(conn)
		prev := cleanup
		cleanup = func() {
			conn.Close()
			prev()
		}
	}

	return tradeStore, snapshotStore, cleanup, nil
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Info("starting metrics server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", zap.Error(err))
	}
}
