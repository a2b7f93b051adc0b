package reporting

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/storage"
	"trade-audit-lab/internal/storage/memory"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func seedTrades(t *testing.T, store storage.TradeStore) {
	t.Helper()
	trades := []*domain.TradeRecord{
		{
			TradeID:   "t-1",
			Ticker:    "AAPL",
			Strategy:  "momentum",
			EntryTime: 1717200000000,
			Status:    domain.StatusClosed,
			Outcome:   domain.OutcomeWin,
		},
		{
			TradeID:   "t-2",
			Ticker:    "MSFT",
			Strategy:  "momentum",
			EntryTime: 1717286400000,
			Status:    domain.StatusOpen,
		},
	}
	if err := store.InsertBulk(context.Background(), trades); err != nil {
		t.Fatalf("seed trades: %v", err)
	}
}

func samplePackage() *domain.DiscoveryPackage {
	return &domain.DiscoveryPackage{
		TotalTrades:          2,
		ClosedCount:          1,
		OpenCount:            1,
		StrategyDistribution: map[string]int{"momentum": 1},
		TickerRollups: []domain.TickerRollup{
			{Ticker: "AAPL", ClosedCount: 1, Wins: 1, TotalPnL: 50},
		},
		ActivePositions: []domain.ActivePosition{
			{TradeID: "t-2", Ticker: "MSFT", Strategy: "momentum", EntryTime: 1717286400000, EntryPrice: 420, Size: 10, DaysHeld: 0.5},
		},
		Metrics: &domain.PortfolioMetrics{
			TotalClosed:  1,
			Wins:         1,
			TotalPnL:     50,
			WinRate:      1.0,
			ProfitFactor: math.Inf(1),
			Strategies: map[string]*domain.StrategyMetrics{
				"momentum": {
					Strategy:    "momentum",
					TotalClosed: 1,
					Wins:        1,
					TotalPnL:    50,
					WinRate:     domain.Insufficient(1, 5),
				},
			},
		},
		Validation: &domain.ValidationReport{
			Checks: []domain.MetricCheck{
				{Metric: "total_pnl", Reported: 50, Recomputed: 50, Tolerance: 0.01, ToleranceMet: true, Confidence: 1.0},
			},
			AllTolerancesMet: true,
			Confidence:       1.0,
		},
		Confidence: 0.305,
	}
}

func TestGenerate(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore)

	snapStore := memory.NewMetricsSnapshotStore()
	if err := snapStore.Insert(context.Background(), &storage.MetricsSnapshot{
		RunAt:       1717100000000,
		TotalClosed: 1,
		WinRate:     1.0,
		Confidence:  0.3,
	}); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	gen := NewGenerator(tradeStore, snapStore).WithClock(fixedClock())

	report, err := gen.Generate(context.Background(), samplePackage(), DataQualitySection{AllChecksPassed: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.GeneratedAt != fixedClock()() {
		t.Error("GeneratedAt should come from the injected clock")
	}
	if report.DataSummary.TotalTrades != 2 || report.DataSummary.ClosedTrades != 1 {
		t.Errorf("unexpected data summary: %+v", report.DataSummary)
	}
	if report.DataSummary.DateRangeStart != 1717200000000 || report.DataSummary.DateRangeEnd != 1717286400000 {
		t.Errorf("unexpected date range: %d..%d", report.DataSummary.DateRangeStart, report.DataSummary.DateRangeEnd)
	}
	if len(report.StrategyMetrics) != 1 || report.StrategyMetrics[0].Strategy != "momentum" {
		t.Errorf("unexpected strategy metrics: %+v", report.StrategyMetrics)
	}
	if len(report.History) != 1 || report.History[0].RunAt != 1717100000000 {
		t.Errorf("unexpected history: %+v", report.History)
	}
	if !report.AllTolerancesMet || len(report.ValidationChecks) != 1 {
		t.Error("validation section not carried over")
	}
}

func TestGenerate_CachesReport(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore)

	gen := NewGenerator(tradeStore, nil).WithClock(fixedClock())

	first, err := gen.Generate(context.Background(), samplePackage(), DataQualitySection{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	second, err := gen.Generate(context.Background(), samplePackage(), DataQualitySection{})
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if first != second {
		t.Error("second call within TTL should return the cached report")
	}

	gen.Invalidate()
	third, err := gen.Generate(context.Background(), samplePackage(), DataQualitySection{})
	if err != nil {
		t.Fatalf("third Generate failed: %v", err)
	}
	if first == third {
		t.Error("Invalidate should force a rebuild")
	}
}

func TestGenerate_NilSnapshotStore(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore)

	gen := NewGenerator(tradeStore, nil).WithClock(fixedClock())

	report, err := gen.Generate(context.Background(), samplePackage(), DataQualitySection{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.History != nil {
		t.Error("history should be empty without a snapshot store")
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore)

	gen := NewGenerator(tradeStore, nil).WithClock(fixedClock())
	report, err := gen.Generate(context.Background(), samplePackage(), DataQualitySection{
		SufficiencyChecks: []SufficiencyCheckRow{
			{Name: "Closed trades", Threshold: ">= 5", Actual: "1", Pass: false},
		},
		RowErrors: []string{"line 3: bad entry_time"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Trade Audit Report",
		"## Data Summary",
		"## Data Quality",
		"line 3: bad entry_time",
		"## Portfolio Metrics",
		"| Profit Factor | +Inf |",
		"## Strategy Metrics",
		"INSUFFICIENT (n=1, min=5)",
		"## Self-Validation",
		"**All tolerances met.**",
		"## Active Positions",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	rows := []StrategyMetricRow{
		{
			Strategy:     "momentum",
			TotalClosed:  10,
			Wins:         6,
			Losses:       3,
			Breakevens:   1,
			TotalPnL:     125.5,
			WinRate:      domain.OK(0.6667, 0.5, 9),
			ProfitFactor: domain.OK(2.5, 0.5, 9),
			Sharpe:       domain.OK(1.1, 0.5, 10),
			AvgWin:       domain.OK(30, 0.5, 6),
			AvgLoss:      domain.OK(-15, 0.5, 3),
		},
		{
			Strategy:    "scalping",
			TotalClosed: 2,
			Wins:        1,
			Losses:      1,
			WinRate:     domain.Insufficient(2, 5),
		},
	}

	csv := RenderCSV(rows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "momentum,10,6,3,1,") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	if !strings.Contains(lines[1], "OK") {
		t.Errorf("first row should carry OK status: %s", lines[1])
	}
	if !strings.Contains(lines[2], "INSUFFICIENT_SAMPLE") {
		t.Errorf("second row should carry insufficient status: %s", lines[2])
	}
	// Insufficient strata leave metric columns empty.
	if !strings.Contains(lines[2], ",,") {
		t.Errorf("second row should have empty metric columns: %s", lines[2])
	}
}
