package domain

import "time"

// MetricStatus tags a MetricResult as a usable number or a placeholder.
type MetricStatus string

const (
	MetricOK           MetricStatus = "OK"
	MetricInsufficient MetricStatus = "INSUFFICIENT_SAMPLE"
)

// MetricResult is a tagged value: either a computed number with a
// confidence, or an insufficient-sample marker. Callers must check Status
// before reading Value.
type MetricResult struct {
	Status          MetricStatus
	Value           float64
	Confidence      float64
	SampleSize      int
	MinimumRequired int
}

// OK builds a usable MetricResult.
func OK(value, confidence float64, sampleSize int) MetricResult {
	return MetricResult{
		Status:     MetricOK,
		Value:      value,
		Confidence: confidence,
		SampleSize: sampleSize,
	}
}

// Insufficient builds an insufficient-sample marker.
func Insufficient(sampleSize, minimumRequired int) MetricResult {
	return MetricResult{
		Status:          MetricInsufficient,
		SampleSize:      sampleSize,
		MinimumRequired: minimumRequired,
	}
}

// Usable reports whether the metric carries a real number.
func (m MetricResult) Usable() bool {
	return m.Status == MetricOK
}

// PortfolioMetrics is the immutable aggregate over the closed subset of the
// ledger. Built exactly once per run by the calculator and never mutated.
// ProfitFactor may legitimately be +Inf (no losing PnL); Sharpe is always
// finite (defined 0 when the return series has zero variance).
type PortfolioMetrics struct {
	GeneratedAt time.Time

	// Counts
	TotalClosed    int
	Wins           int
	Losses         int
	Breakevens     int
	DecisiveTrades int // wins + losses

	// PnL sums
	TotalPnL   float64
	WinningPnL float64
	LosingPnL  float64 // negative or zero

	// Ratios
	WinRate      float64 // wins / decisive, 0 when decisive == 0
	ProfitFactor float64 // |winning / losing|, +Inf when losing ~ 0 and winning > 0

	// Averages
	AvgWin  float64
	AvgLoss float64 // negative or zero

	// Duration
	AvgDurationDays float64
	MaxDurationDays float64

	// Risk-adjusted (computed over StoredReturn of closed trades)
	MeanReturn float64
	Volatility float64 // sample stddev of returns
	Sharpe     float64

	// Order-dependent (entry time ASC, trade id ASC)
	MaxDrawdown          float64
	MaxConsecutiveLosses int

	// Per-strategy breakdown. Strata below the minimum sample carry
	// Insufficient results; their counts are still populated.
	Strategies map[string]*StrategyMetrics
}

// StrategyMetrics is the per-stratum breakdown, same shape as the headline
// aggregate but with tagged results so a thin stratum cannot be mistaken
// for a statistically sound one.
type StrategyMetrics struct {
	Strategy       string
	TotalClosed    int
	Wins           int
	Losses         int
	Breakevens     int
	DecisiveTrades int
	TotalPnL       float64

	WinRate      MetricResult
	ProfitFactor MetricResult
	Sharpe       MetricResult
	AvgWin       MetricResult
	AvgLoss      MetricResult
}

// NoData reports whether the metrics object is the empty-portfolio sentinel.
func (m *PortfolioMetrics) NoData() bool {
	return m.TotalClosed == 0
}
