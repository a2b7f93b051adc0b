package selfcheck

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-audit-lab/internal/classify"
	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/metrics"
)

func buildClosed(t *testing.T, pnls []float64) []*domain.TradeRecord {
	t.Helper()

	classifier := classify.New(0.01)
	trades := make([]*domain.TradeRecord, len(pnls))
	for i, pnl := range pnls {
		outcome, err := classifier.Classify(pnl)
		require.NoError(t, err)
		trades[i] = &domain.TradeRecord{
			TradeID:      fmt.Sprintf("t%02d", i),
			Ticker:       "AAPL",
			Strategy:     "momentum",
			Status:       domain.StatusClosed,
			EntryTime:    1700000000000 + int64(i)*3600_000,
			EntryPrice:   100,
			Size:         10,
			StoredPnL:    pnl,
			StoredReturn: pnl / 1000,
			DurationDays: 1,
			Outcome:      outcome,
		}
	}
	return trades
}

func TestValidate_AgreesWithCalculator(t *testing.T) {
	trades := buildClosed(t, []float64{50, -20, 30, -10, 25, -5, 40})

	m, err := metrics.NewCalculator(metrics.Config{}).Calculate(trades)
	require.NoError(t, err)

	report := New(Config{}, nil).Validate(trades, m)

	require.Len(t, report.Checks, 3)
	assert.True(t, report.AllTolerancesMet)
	assert.InDelta(t, 1.0, report.Confidence, 1e-9)
	for _, c := range report.Checks {
		assert.True(t, c.ToleranceMet, "check %s exceeded tolerance (variance %v)", c.Metric, c.Variance)
	}
}

func TestValidate_DetectsDriftedTotalPnL(t *testing.T) {
	trades := buildClosed(t, []float64{50, -20, 30})

	m, err := metrics.NewCalculator(metrics.Config{}).Calculate(trades)
	require.NoError(t, err)

	// Simulate producer drift.
	drifted := *m
	drifted.TotalPnL += 5.0

	report := New(Config{}, nil).Validate(trades, &drifted)

	assert.False(t, report.AllTolerancesMet)
	assert.Equal(t, 0.0, report.Confidence)

	var pnlCheck *domain.MetricCheck
	for i := range report.Checks {
		if report.Checks[i].Metric == "total_pnl" {
			pnlCheck = &report.Checks[i]
		}
	}
	require.NotNil(t, pnlCheck)
	assert.False(t, pnlCheck.ToleranceMet)
	assert.InDelta(t, 5.0, pnlCheck.Variance, 1e-9)
}

func TestValidate_ConfidenceDecaysSmoothly(t *testing.T) {
	trades := buildClosed(t, []float64{50, -20, 30})

	m, err := metrics.NewCalculator(metrics.Config{}).Calculate(trades)
	require.NoError(t, err)

	// Half-tolerance drift: still passing, but confidence visibly reduced.
	drifted := *m
	drifted.TotalPnL += PnLTolerance / 2

	report := New(Config{}, nil).Validate(trades, &drifted)

	assert.True(t, report.AllTolerancesMet)
	assert.InDelta(t, 0.5, report.Confidence, 1e-6)
}

func TestValidate_ZeroVarianceSharpeAgreement(t *testing.T) {
	// Constant returns: both sides must land on exactly 0.
	trades := buildClosed(t, []float64{50, 50, 50})

	m, err := metrics.NewCalculator(metrics.Config{}).Calculate(trades)
	require.NoError(t, err)
	require.Equal(t, 0.0, m.Sharpe)

	report := New(Config{}, nil).Validate(trades, m)
	assert.True(t, report.AllTolerancesMet)
}

func TestValidate_EmptyClosedSet(t *testing.T) {
	m, err := metrics.NewCalculator(metrics.Config{}).Calculate(nil)
	require.NoError(t, err)

	report := New(Config{}, nil).Validate(nil, m)
	assert.True(t, report.AllTolerancesMet)
}
