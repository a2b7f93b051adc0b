// Package metrics aggregates classified, validated trade records into
// portfolio- and strategy-level statistics.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"trade-audit-lab/internal/consistency"
	"trade-audit-lab/internal/domain"
)

// Defaults for the calculator configuration.
const (
	DefaultMinSampleSize  = 5
	DefaultAnnualRiskFree = 0.05
	// TradingDaysPerYear converts the annual risk-free rate to the daily
	// rate used by Sharpe. This is the single place the conversion happens.
	TradingDaysPerYear = 252
)

// Config controls tolerances and sample policies.
type Config struct {
	PnLTolerance   float64 // breakeven band for profit factor denominator
	MinSampleSize  int     // strata below this carry Insufficient results
	AnnualRiskFree float64 // annualized risk-free rate, e.g. 0.05
}

// Calculator is a pure aggregator: same input, same output, no side effects.
type Calculator struct {
	cfg Config
	now func() time.Time
}

// NewCalculator creates a calculator. Zero config fields get defaults.
func NewCalculator(cfg Config) *Calculator {
	if cfg.PnLTolerance <= 0 {
		cfg.PnLTolerance = consistency.DefaultPnLTolerance
	}
	if cfg.MinSampleSize <= 0 {
		cfg.MinSampleSize = DefaultMinSampleSize
	}
	if cfg.AnnualRiskFree == 0 {
		cfg.AnnualRiskFree = DefaultAnnualRiskFree
	}
	return &Calculator{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for the GeneratedAt stamp.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// dailyRiskFree converts the annual rate once.
func (c *Calculator) dailyRiskFree() float64 {
	return c.cfg.AnnualRiskFree / TradingDaysPerYear
}

// Calculate aggregates already-classified, already-validated closed trades.
// An empty input returns the no-data sentinel, not an error: a brand-new
// portfolio is a legitimate state. The only error path is the defensive
// classification invariant (win+loss+breakeven must equal total), which
// signals a classifier bug and aborts.
func (c *Calculator) Calculate(closed []*domain.TradeRecord) (*domain.PortfolioMetrics, error) {
	m := &domain.PortfolioMetrics{
		GeneratedAt: c.now(),
		Strategies:  make(map[string]*domain.StrategyMetrics),
	}
	if len(closed) == 0 {
		return m, nil
	}

	sorted := sortChronological(closed)

	counts, sums := tally(sorted)
	if counts.wins+counts.losses+counts.breakevens != len(sorted) {
		return nil, &consistency.ConsistencyError{
			Kind:       consistency.KindClassificationInvariant,
			Stored:     float64(len(sorted)),
			Recomputed: float64(counts.wins + counts.losses + counts.breakevens),
		}
	}

	m.TotalClosed = len(sorted)
	m.Wins = counts.wins
	m.Losses = counts.losses
	m.Breakevens = counts.breakevens
	m.DecisiveTrades = counts.wins + counts.losses

	m.TotalPnL = sums.totalPnL
	m.WinningPnL = sums.winningPnL
	m.LosingPnL = sums.losingPnL

	m.WinRate = computeWinRate(counts.wins, m.DecisiveTrades)
	m.ProfitFactor = computeProfitFactor(sums.winningPnL, sums.losingPnL, c.cfg.PnLTolerance)

	if counts.wins > 0 {
		m.AvgWin = sums.winningPnL / float64(counts.wins)
	}
	if counts.losses > 0 {
		m.AvgLoss = sums.losingPnL / float64(counts.losses)
	}

	durations := make([]float64, len(sorted))
	returns := make([]float64, len(sorted))
	pnls := make([]float64, len(sorted))
	for i, t := range sorted {
		durations[i] = t.DurationDays
		returns[i] = t.StoredReturn
		pnls[i] = t.StoredPnL
	}

	m.AvgDurationDays = computeMean(durations)
	for _, d := range durations {
		if d > m.MaxDurationDays {
			m.MaxDurationDays = d
		}
	}

	m.MeanReturn = computeMean(returns)
	m.Volatility = computeStddev(returns, m.MeanReturn)
	m.Sharpe = computeSharpe(returns, c.dailyRiskFree())

	m.MaxDrawdown = computeMaxDrawdown(pnls)
	m.MaxConsecutiveLosses = computeMaxConsecutiveLosses(sorted)

	strategies, err := c.calculateStrategies(sorted)
	if err != nil {
		return nil, err
	}
	m.Strategies = strategies

	return m, nil
}

// calculateStrategies applies the identical aggregation per stratum.
// Strata are independent, so they fan out across goroutines into
// pre-allocated slots; iteration order never affects the result.
func (c *Calculator) calculateStrategies(sorted []*domain.TradeRecord) (map[string]*domain.StrategyMetrics, error) {
	byStrategy := make(map[string][]*domain.TradeRecord)
	for _, t := range sorted {
		byStrategy[t.Strategy] = append(byStrategy[t.Strategy], t)
	}

	names := make([]string, 0, len(byStrategy))
	for name := range byStrategy {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]*domain.StrategyMetrics, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			sm, err := c.calculateStratum(name, byStrategy[name])
			if err != nil {
				return err
			}
			results[i] = sm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*domain.StrategyMetrics, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}

// calculateStratum aggregates one strategy's trades. Thin strata keep their
// counts but expose Insufficient markers instead of statistics.
func (c *Calculator) calculateStratum(name string, trades []*domain.TradeRecord) (*domain.StrategyMetrics, error) {
	counts, sums := tally(trades)
	if counts.wins+counts.losses+counts.breakevens != len(trades) {
		return nil, &consistency.ConsistencyError{
			Kind:       consistency.KindClassificationInvariant,
			Stored:     float64(len(trades)),
			Recomputed: float64(counts.wins + counts.losses + counts.breakevens),
		}
	}

	sm := &domain.StrategyMetrics{
		Strategy:       name,
		TotalClosed:    len(trades),
		Wins:           counts.wins,
		Losses:         counts.losses,
		Breakevens:     counts.breakevens,
		DecisiveTrades: counts.wins + counts.losses,
		TotalPnL:       sums.totalPnL,
	}

	n := len(trades)
	if n < c.cfg.MinSampleSize {
		insufficient := domain.Insufficient(n, c.cfg.MinSampleSize)
		sm.WinRate = insufficient
		sm.ProfitFactor = insufficient
		sm.Sharpe = insufficient
		sm.AvgWin = insufficient
		sm.AvgLoss = insufficient
		return sm, nil
	}

	confidence := sampleConfidence(n, c.cfg.MinSampleSize)

	sm.WinRate = domain.OK(computeWinRate(counts.wins, sm.DecisiveTrades), confidence, n)
	sm.ProfitFactor = domain.OK(computeProfitFactor(sums.winningPnL, sums.losingPnL, c.cfg.PnLTolerance), confidence, n)

	returns := make([]float64, n)
	for i, t := range trades {
		returns[i] = t.StoredReturn
	}
	sm.Sharpe = domain.OK(computeSharpe(returns, c.dailyRiskFree()), confidence, n)

	avgWin := 0.0
	if counts.wins > 0 {
		avgWin = sums.winningPnL / float64(counts.wins)
	}
	avgLoss := 0.0
	if counts.losses > 0 {
		avgLoss = sums.losingPnL / float64(counts.losses)
	}
	sm.AvgWin = domain.OK(avgWin, confidence, n)
	sm.AvgLoss = domain.OK(avgLoss, confidence, n)

	return sm, nil
}

// sampleConfidence grows with sample size and saturates at 1.0.
func sampleConfidence(n, minSample int) float64 {
	return math.Min(1.0, float64(n)/float64(minSample*4))
}

type outcomeCounts struct {
	wins       int
	losses     int
	breakevens int
}

type pnlSums struct {
	totalPnL   float64
	winningPnL float64
	losingPnL  float64
}

// tally counts outcomes and sums PnL buckets in one pass.
func tally(trades []*domain.TradeRecord) (outcomeCounts, pnlSums) {
	var counts outcomeCounts
	var sums pnlSums

	for _, t := range trades {
		sums.totalPnL += t.StoredPnL
		switch t.Outcome {
		case domain.OutcomeWin:
			counts.wins++
			sums.winningPnL += t.StoredPnL
		case domain.OutcomeLoss:
			counts.losses++
			sums.losingPnL += t.StoredPnL
		case domain.OutcomeBreakeven:
			counts.breakevens++
		}
	}
	return counts, sums
}

// Describe summarizes the effective configuration for logs.
func (c *Calculator) Describe() string {
	return fmt.Sprintf("pnl_tolerance=%.4f min_sample=%d annual_rf=%.4f",
		c.cfg.PnLTolerance, c.cfg.MinSampleSize, c.cfg.AnnualRiskFree)
}
