package metrics

import (
	"math"
	"sort"

	"trade-audit-lab/internal/domain"
)

// sortChronological orders trades by EntryTime ASC, TradeID ASC so that
// order-dependent metrics (MaxDrawdown, MaxConsecutiveLosses) are
// deterministic. Returns a new slice, input is never mutated.
func sortChronological(trades []*domain.TradeRecord) []*domain.TradeRecord {
	sorted := make([]*domain.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EntryTime != sorted[j].EntryTime {
			return sorted[i].EntryTime < sorted[j].EntryTime
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})
	return sorted
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeWinRate calculates wins / decisive.
// Defined as 0 when there are no decisive trades.
func computeWinRate(wins, decisive int) float64 {
	if decisive == 0 {
		return 0
	}
	return float64(wins) / float64(decisive)
}

// computeProfitFactor calculates |winningPnL / losingPnL|.
// When losing PnL is within pnlTolerance of zero and there is winning PnL,
// the result is +Inf: a real degenerate state, not an error.
func computeProfitFactor(winningPnL, losingPnL, pnlTolerance float64) float64 {
	if math.Abs(losingPnL) < pnlTolerance {
		if winningPnL > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return math.Abs(winningPnL / losingPnL)
}

// zeroStdEpsilon bounds the residual sample stddev a constant series can
// leave behind through float accumulation (around 1e-17 for returns near
// 0.05). Anything at or below the bound, scaled by the mean magnitude,
// counts as zero variance.
const zeroStdEpsilon = 1e-12

// computeSharpe calculates (mean(returns) - dailyRiskFree) / sampleStd.
// Defined as 0 when the return series has zero variance so downstream
// serialization never sees NaN or Inf here.
func computeSharpe(returns []float64, dailyRiskFree float64) float64 {
	mean := computeMean(returns)
	std := computeStddev(returns, mean)
	if std <= zeroStdEpsilon*math.Max(1, math.Abs(mean)) {
		return 0
	}
	return (mean - dailyRiskFree) / std
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative PnL.
// Input must be in chronological order.
func computeMaxDrawdown(pnls []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, p := range pnls {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest Loss streak.
// Breakevens break the streak without extending it.
func computeMaxConsecutiveLosses(trades []*domain.TradeRecord) int {
	maxStreak := 0
	currentStreak := 0

	for _, t := range trades {
		if t.Outcome == domain.OutcomeLoss {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
