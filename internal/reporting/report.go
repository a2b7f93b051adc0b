package reporting

import (
	"time"

	"trade-audit-lab/internal/domain"
)

// Report represents the full audit report structure.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	StrategyCount int

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks plus collected row errors)
	DataQuality DataQualitySection

	// Headline portfolio metrics
	Portfolio PortfolioSection

	// Per-strategy metrics (sorted by strategy)
	StrategyMetrics []StrategyMetricRow

	// Self-validation checks
	ValidationChecks []ValidationCheckRow
	AllTolerancesMet bool

	// Per-ticker rollups (sorted by ticker)
	TickerRollups []domain.TickerRollup

	// Open positions (sorted by entry time, trade id)
	ActivePositions []domain.ActivePosition

	// Previous runs, newest first
	History []HistoryRow

	// Overall confidence attached to the audit
	Confidence float64
}

// DataSummary contains data description.
type DataSummary struct {
	TotalTrades    int
	ClosedTrades   int
	OpenTrades     int
	DateRangeStart int64 // Unix ms, over entry times
	DateRangeEnd   int64 // Unix ms
}

// DataQualitySection contains data sufficiency checks and row errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	RowErrors         []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// PortfolioSection holds the headline aggregate for rendering.
type PortfolioSection struct {
	TotalPnL             float64
	WinRate              float64
	ProfitFactor         float64 // may be +Inf
	AvgWin               float64
	AvgLoss              float64
	Sharpe               float64
	Volatility           float64
	MaxDrawdown          float64
	MaxConsecutiveLosses int
	AvgDurationDays      float64
	MaxDurationDays      float64
}

// StrategyMetricRow represents one row in the per-strategy table. Tagged
// results keep thin strata visibly distinct from sound ones.
type StrategyMetricRow struct {
	Strategy     string
	TotalClosed  int
	Wins         int
	Losses       int
	Breakevens   int
	TotalPnL     float64
	WinRate      domain.MetricResult
	ProfitFactor domain.MetricResult
	Sharpe       domain.MetricResult
	AvgWin       domain.MetricResult
	AvgLoss      domain.MetricResult
}

// ValidationCheckRow represents one stored-vs-recomputed comparison.
type ValidationCheckRow struct {
	Metric       string
	Reported     float64
	Recomputed   float64
	Variance     float64
	Tolerance    float64
	ToleranceMet bool
	Confidence   float64
}

// HistoryRow is one archived run from the snapshot store.
type HistoryRow struct {
	RunAt           int64 // Unix ms
	TotalClosed     int
	TotalPnL        float64
	WinRate         float64
	ProfitFactor    float64
	ProfitFactorInf bool
	Sharpe          float64
	Confidence      float64
}
