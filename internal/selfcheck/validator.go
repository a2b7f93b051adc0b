// Package selfcheck re-derives headline metrics straight from the closed
// trades and compares them against the calculator's output. It is a
// checksum against calculation-logic drift: the recomputation here is
// intentionally independent of the metrics package internals.
package selfcheck

import (
	"math"

	"go.uber.org/zap"

	"trade-audit-lab/internal/domain"
)

// Per-metric comparison tolerances. PnL is absolute dollars; win rate and
// Sharpe are near-exact since both sides consume identical float inputs.
const (
	PnLTolerance     = 0.01
	WinRateTolerance = 1e-9
	SharpeTolerance  = 1e-9

	// zeroStdEpsilon mirrors the calculator's zero-variance cutoff. The
	// recomputation stays independent of the metrics package, so the
	// constant is duplicated rather than imported.
	zeroStdEpsilon = 1e-12
)

// Config for the independent recomputation.
type Config struct {
	Epsilon        float64 // breakeven band, must match the classifier
	AnnualRiskFree float64
	TradingDays    int // trading days per year for the daily rate
}

// Validator recomputes total PnL, win rate and Sharpe.
type Validator struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a self-validator.
func New(cfg Config, logger *zap.Logger) *Validator {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 0.01
	}
	if cfg.AnnualRiskFree == 0 {
		cfg.AnnualRiskFree = 0.05 // matches the calculator default
	}
	if cfg.TradingDays <= 0 {
		cfg.TradingDays = 252
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{cfg: cfg, logger: logger}
}

// Validate compares computed metrics against an independent recomputation.
// Every check yields a variance and a confidence that decays linearly as
// the variance approaches the tolerance boundary, so degradation is
// visible before the boolean flips.
func (v *Validator) Validate(closed []*domain.TradeRecord, computed *domain.PortfolioMetrics) *domain.ValidationReport {
	checks := []domain.MetricCheck{
		v.check("total_pnl", computed.TotalPnL, v.recomputeTotalPnL(closed), PnLTolerance),
		v.check("win_rate", computed.WinRate, v.recomputeWinRate(closed), WinRateTolerance),
		v.check("sharpe", computed.Sharpe, v.recomputeSharpe(closed), SharpeTolerance),
	}

	report := &domain.ValidationReport{
		Checks:           checks,
		AllTolerancesMet: true,
		Confidence:       1.0,
	}
	for _, c := range checks {
		if !c.ToleranceMet {
			report.AllTolerancesMet = false
		}
		if c.Confidence < report.Confidence {
			report.Confidence = c.Confidence
		}
	}

	if !report.AllTolerancesMet {
		v.logger.Warn("self-check tolerance exceeded",
			zap.Float64("confidence", report.Confidence),
		)
	}

	return report
}

func (v *Validator) check(metric string, reported, recomputed, tolerance float64) domain.MetricCheck {
	variance := math.Abs(reported - recomputed)

	// Two infinities of the same sign agree exactly.
	if math.IsInf(reported, 0) && math.IsInf(recomputed, 0) &&
		math.Signbit(reported) == math.Signbit(recomputed) {
		variance = 0
	}

	confidence := 1.0 - variance/tolerance
	if confidence < 0 {
		confidence = 0
	}

	return domain.MetricCheck{
		Metric:       metric,
		Reported:     reported,
		Recomputed:   recomputed,
		Variance:     variance,
		Tolerance:    tolerance,
		ToleranceMet: variance <= tolerance,
		Confidence:   confidence,
	}
}

func (v *Validator) recomputeTotalPnL(closed []*domain.TradeRecord) float64 {
	total := 0.0
	for _, t := range closed {
		total += t.StoredPnL
	}
	return total
}

// recomputeWinRate re-classifies from stored PnL rather than trusting the
// Outcome field, so a classifier bug shows up as a variance here.
func (v *Validator) recomputeWinRate(closed []*domain.TradeRecord) float64 {
	wins, decisive := 0, 0
	for _, t := range closed {
		if math.Abs(t.StoredPnL) < v.cfg.Epsilon {
			continue
		}
		decisive++
		if t.StoredPnL > 0 {
			wins++
		}
	}
	if decisive == 0 {
		return 0
	}
	return float64(wins) / float64(decisive)
}

func (v *Validator) recomputeSharpe(closed []*domain.TradeRecord) float64 {
	n := len(closed)
	if n == 0 {
		return 0
	}

	mean := 0.0
	for _, t := range closed {
		mean += t.StoredReturn
	}
	mean /= float64(n)

	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, t := range closed {
		diff := t.StoredReturn - mean
		sumSq += diff * diff
	}
	std := math.Sqrt(sumSq / float64(n-1))
	// A constant series leaves a residual std near 1e-17 through float
	// accumulation; scale the zero cutoff by the mean magnitude.
	if std <= zeroStdEpsilon*math.Max(1, math.Abs(mean)) {
		return 0
	}

	dailyRiskFree := v.cfg.AnnualRiskFree / float64(v.cfg.TradingDays)
	return (mean - dailyRiskFree) / std
}
