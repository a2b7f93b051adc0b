// Package discovery packages trades, metrics and validation results into
// the structured object consumed by downstream reporting stages.
package discovery

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"trade-audit-lab/internal/domain"
)

// Confidence parameters: confidence grows with the closed sample size but
// never reaches unwarranted certainty.
const (
	DefaultConfidenceBase       = 0.3
	DefaultConfidenceCap        = 0.95
	DefaultConfidenceNormalizer = 200.0
)

// Config for the assembler.
type Config struct {
	ConfidenceBase       float64
	ConfidenceCap        float64
	ConfidenceNormalizer float64
}

// Assembler builds DiscoveryPackages.
type Assembler struct {
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// NewAssembler creates an assembler. Zero config fields get defaults.
func NewAssembler(cfg Config, logger *zap.Logger) *Assembler {
	if cfg.ConfidenceBase <= 0 {
		cfg.ConfidenceBase = DefaultConfidenceBase
	}
	if cfg.ConfidenceCap <= 0 {
		cfg.ConfidenceCap = DefaultConfidenceCap
	}
	if cfg.ConfidenceNormalizer <= 0 {
		cfg.ConfidenceNormalizer = DefaultConfidenceNormalizer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// WithClock sets a custom clock for days-held computation.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Assemble builds the package from all trades (open and closed), the
// computed metrics and the self-check report. Inputs are read-only.
func (a *Assembler) Assemble(trades []*domain.TradeRecord, m *domain.PortfolioMetrics, report *domain.ValidationReport) *domain.DiscoveryPackage {
	pkg := &domain.DiscoveryPackage{
		TotalTrades:          len(trades),
		StrategyDistribution: make(map[string]int),
		Metrics:              m,
		Validation:           report,
	}

	rollups := make(map[string]*domain.TickerRollup)
	now := a.now()

	for _, t := range trades {
		if !t.Closed() {
			pkg.OpenCount++
			pkg.ActivePositions = append(pkg.ActivePositions, domain.ActivePosition{
				TradeID:    t.TradeID,
				Ticker:     t.Ticker,
				Strategy:   t.Strategy,
				EntryTime:  t.EntryTime,
				EntryPrice: t.EntryPrice,
				Size:       t.Size,
				DaysHeld:   daysHeld(t.EntryTime, now),
			})
			continue
		}

		pkg.ClosedCount++
		pkg.StrategyDistribution[t.Strategy]++

		r, ok := rollups[t.Ticker]
		if !ok {
			r = &domain.TickerRollup{Ticker: t.Ticker}
			rollups[t.Ticker] = r
		}
		r.ClosedCount++
		r.TotalPnL += t.StoredPnL
		switch t.Outcome {
		case domain.OutcomeWin:
			r.Wins++
		case domain.OutcomeLoss:
			r.Losses++
		}
	}

	tickers := make([]string, 0, len(rollups))
	for ticker := range rollups {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	for _, ticker := range tickers {
		pkg.TickerRollups = append(pkg.TickerRollups, *rollups[ticker])
	}

	sort.Slice(pkg.ActivePositions, func(i, j int) bool {
		if pkg.ActivePositions[i].EntryTime != pkg.ActivePositions[j].EntryTime {
			return pkg.ActivePositions[i].EntryTime < pkg.ActivePositions[j].EntryTime
		}
		return pkg.ActivePositions[i].TradeID < pkg.ActivePositions[j].TradeID
	})

	pkg.Confidence = a.confidence(pkg.ClosedCount, report)

	a.logger.Debug("discovery package assembled",
		zap.Int("total", pkg.TotalTrades),
		zap.Int("closed", pkg.ClosedCount),
		zap.Int("open", pkg.OpenCount),
		zap.Float64("confidence", pkg.Confidence),
	)

	return pkg
}

// confidence is min(cap, base + closedN/normalizer), scaled by the
// self-check confidence so a drifting recomputation drags the headline
// confidence down with it.
func (a *Assembler) confidence(closedN int, report *domain.ValidationReport) float64 {
	c := a.cfg.ConfidenceBase + float64(closedN)/a.cfg.ConfidenceNormalizer
	if c > a.cfg.ConfidenceCap {
		c = a.cfg.ConfidenceCap
	}
	if report != nil {
		c *= report.Confidence
	}
	return c
}

func daysHeld(entryMs int64, now time.Time) float64 {
	held := now.Sub(time.UnixMilli(entryMs))
	if held < 0 {
		return 0
	}
	return held.Hours() / 24
}
