package reporting

import (
	"context"
	"sort"
	"time"

	"trade-audit-lab/internal/cache"
	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/storage"
)

const (
	reportCacheKey  = "latest"
	historyDepth    = 5
	defaultCacheTTL = 5 * time.Minute
)

// Generator produces reports from an assembled discovery package and
// stored data. Repeated calls within the cache TTL return the same report.
type Generator struct {
	tradeStore    storage.TradeStore
	snapshotStore storage.MetricsSnapshotStore // optional
	reports       *cache.Cache[*Report]
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. snapshotStore may be nil
// when no archive is configured.
func NewGenerator(tradeStore storage.TradeStore, snapshotStore storage.MetricsSnapshotStore) *Generator {
	return &Generator{
		tradeStore:    tradeStore,
		snapshotStore: snapshotStore,
		reports:       cache.New[*Report](defaultCacheTTL, 1),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output. The
// report cache shares the same clock.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	g.reports.WithClock(now)
	return g
}

// WithCacheTTL replaces the report cache with one using the given TTL.
func (g *Generator) WithCacheTTL(ttl time.Duration) *Generator {
	g.reports = cache.New[*Report](ttl, 1).WithClock(g.now)
	return g
}

// Invalidate drops the cached report. Call after a new audit run.
func (g *Generator) Invalidate() {
	g.reports.Invalidate(reportCacheKey)
}

// Generate produces a complete audit report. A fresh cached report is
// returned as-is; otherwise the report is built and cached.
func (g *Generator) Generate(ctx context.Context, pkg *domain.DiscoveryPackage, quality DataQualitySection) (*Report, error) {
	if cached, ok := g.reports.Get(reportCacheKey); ok {
		return cached, nil
	}

	summary, err := g.generateDataSummary(ctx, pkg)
	if err != nil {
		return nil, err
	}

	history, err := g.generateHistory(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:     g.now(),
		StrategyCount:   len(pkg.StrategyDistribution),
		DataSummary:     *summary,
		DataQuality:     quality,
		StrategyMetrics: generateStrategyMetrics(pkg.Metrics),
		TickerRollups:   pkg.TickerRollups,
		ActivePositions: pkg.ActivePositions,
		History:         history,
		Confidence:      pkg.Confidence,
	}

	if pkg.Metrics != nil {
		report.Portfolio = PortfolioSection{
			TotalPnL:             pkg.Metrics.TotalPnL,
			WinRate:              pkg.Metrics.WinRate,
			ProfitFactor:         pkg.Metrics.ProfitFactor,
			AvgWin:               pkg.Metrics.AvgWin,
			AvgLoss:              pkg.Metrics.AvgLoss,
			Sharpe:               pkg.Metrics.Sharpe,
			Volatility:           pkg.Metrics.Volatility,
			MaxDrawdown:          pkg.Metrics.MaxDrawdown,
			MaxConsecutiveLosses: pkg.Metrics.MaxConsecutiveLosses,
			AvgDurationDays:      pkg.Metrics.AvgDurationDays,
			MaxDurationDays:      pkg.Metrics.MaxDurationDays,
		}
	}

	if pkg.Validation != nil {
		report.AllTolerancesMet = pkg.Validation.AllTolerancesMet
		report.ValidationChecks = make([]ValidationCheckRow, len(pkg.Validation.Checks))
		for i, c := range pkg.Validation.Checks {
			report.ValidationChecks[i] = ValidationCheckRow{
				Metric:       c.Metric,
				Reported:     c.Reported,
				Recomputed:   c.Recomputed,
				Variance:     c.Variance,
				Tolerance:    c.Tolerance,
				ToleranceMet: c.ToleranceMet,
				Confidence:   c.Confidence,
			}
		}
	}

	g.reports.Set(reportCacheKey, report)
	return report, nil
}

// generateDataSummary computes counts and the entry-time date range.
func (g *Generator) generateDataSummary(ctx context.Context, pkg *domain.DiscoveryPackage) (*DataSummary, error) {
	summary := &DataSummary{
		TotalTrades:  pkg.TotalTrades,
		ClosedTrades: pkg.ClosedCount,
		OpenTrades:   pkg.OpenCount,
	}

	trades, err := g.tradeStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(trades) > 0 {
		// GetAll orders by entry time ASC.
		summary.DateRangeStart = trades[0].EntryTime
		summary.DateRangeEnd = trades[len(trades)-1].EntryTime
	}

	return summary, nil
}

// generateHistory loads recent archived runs, newest first.
func (g *Generator) generateHistory(ctx context.Context) ([]HistoryRow, error) {
	if g.snapshotStore == nil {
		return nil, nil
	}

	snaps, err := g.snapshotStore.GetRecent(ctx, historyDepth)
	if err != nil {
		return nil, err
	}

	rows := make([]HistoryRow, len(snaps))
	for i, s := range snaps {
		rows[i] = HistoryRow{
			RunAt:           s.RunAt,
			TotalClosed:     int(s.TotalClosed),
			TotalPnL:        s.TotalPnL,
			WinRate:         s.WinRate,
			ProfitFactor:    s.ProfitFactor,
			ProfitFactorInf: s.ProfitFactorInf,
			Sharpe:          s.Sharpe,
			Confidence:      s.Confidence,
		}
	}
	return rows, nil
}

// generateStrategyMetrics builds sorted per-strategy rows.
func generateStrategyMetrics(m *domain.PortfolioMetrics) []StrategyMetricRow {
	if m == nil || len(m.Strategies) == 0 {
		return nil
	}

	rows := make([]StrategyMetricRow, 0, len(m.Strategies))
	for _, s := range m.Strategies {
		rows = append(rows, StrategyMetricRow{
			Strategy:     s.Strategy,
			TotalClosed:  s.TotalClosed,
			Wins:         s.Wins,
			Losses:       s.Losses,
			Breakevens:   s.Breakevens,
			TotalPnL:     s.TotalPnL,
			WinRate:      s.WinRate,
			ProfitFactor: s.ProfitFactor,
			Sharpe:       s.Sharpe,
			AvgWin:       s.AvgWin,
			AvgLoss:      s.AvgLoss,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Strategy < rows[j].Strategy
	})
	return rows
}
