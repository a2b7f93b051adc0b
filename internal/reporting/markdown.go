package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"trade-audit-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Trade Audit Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategies: %d | Confidence: %.4f\n\n", r.StrategyCount, r.Confidence))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.DataSummary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.DataSummary.ClosedTrades))
	sb.WriteString(fmt.Sprintf("| Open Trades | %d |\n", r.DataSummary.OpenTrades))
	sb.WriteString(fmt.Sprintf("| Date Range Start (ms) | %d |\n", r.DataSummary.DateRangeStart))
	sb.WriteString(fmt.Sprintf("| Date Range End (ms) | %d |\n", r.DataSummary.DateRangeEnd))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.**\n\n")
		}
	} else if len(r.DataQuality.RowErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Row errors (always shown if present, even without sufficiency checks)
	if len(r.DataQuality.RowErrors) > 0 {
		sb.WriteString("### Rejected Rows\n\n")
		for _, err := range r.DataQuality.RowErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Portfolio Metrics
	sb.WriteString("## Portfolio Metrics\n\n")
	if r.DataSummary.ClosedTrades > 0 {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total PnL | %.2f |\n", r.Portfolio.TotalPnL))
		sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", r.Portfolio.WinRate))
		sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatProfitFactor(r.Portfolio.ProfitFactor)))
		sb.WriteString(fmt.Sprintf("| Avg Win | %.2f |\n", r.Portfolio.AvgWin))
		sb.WriteString(fmt.Sprintf("| Avg Loss | %.2f |\n", r.Portfolio.AvgLoss))
		sb.WriteString(fmt.Sprintf("| Sharpe | %.4f |\n", r.Portfolio.Sharpe))
		sb.WriteString(fmt.Sprintf("| Volatility | %.6f |\n", r.Portfolio.Volatility))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f |\n", r.Portfolio.MaxDrawdown))
		sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", r.Portfolio.MaxConsecutiveLosses))
		sb.WriteString(fmt.Sprintf("| Avg Duration (days) | %.2f |\n", r.Portfolio.AvgDurationDays))
		sb.WriteString(fmt.Sprintf("| Max Duration (days) | %.2f |\n", r.Portfolio.MaxDurationDays))
	} else {
		sb.WriteString("No closed trades available.\n")
	}
	sb.WriteString("\n")

	// Strategy Metrics
	sb.WriteString("## Strategy Metrics\n\n")
	if len(r.StrategyMetrics) > 0 {
		sb.WriteString("| Strategy | Closed | W | L | BE | PnL | WinRate | ProfitFactor | Sharpe | AvgWin | AvgLoss |\n")
		sb.WriteString("|----------|--------|---|---|----|-----|---------|--------------|--------|--------|--------|\n")
		for _, m := range r.StrategyMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %.2f | %s | %s | %s | %s | %s |\n",
				m.Strategy, m.TotalClosed, m.Wins, m.Losses, m.Breakevens, m.TotalPnL,
				formatMetric(m.WinRate), formatMetric(m.ProfitFactor), formatMetric(m.Sharpe),
				formatMetric(m.AvgWin), formatMetric(m.AvgLoss)))
		}
	} else {
		sb.WriteString("No strategy metrics available.\n")
	}
	sb.WriteString("\n")

	// Self-Validation
	sb.WriteString("## Self-Validation\n\n")
	if len(r.ValidationChecks) > 0 {
		sb.WriteString("| Metric | Reported | Recomputed | Variance | Tolerance | Status | Confidence |\n")
		sb.WriteString("|--------|----------|------------|----------|-----------|--------|------------|\n")
		for _, c := range r.ValidationChecks {
			status := "EXCEEDED"
			if c.ToleranceMet {
				status = "OK"
			}
			sb.WriteString(fmt.Sprintf("| %s | %.6f | %.6f | %.6f | %.6f | %s | %.4f |\n",
				c.Metric, c.Reported, c.Recomputed, c.Variance, c.Tolerance, status, c.Confidence))
		}
		sb.WriteString("\n")
		if r.AllTolerancesMet {
			sb.WriteString("**All tolerances met.**\n\n")
		} else {
			sb.WriteString("**Tolerance exceeded.** Reported metrics disagree with independent recomputation.\n\n")
		}
	} else {
		sb.WriteString("No validation checks available.\n\n")
	}

	// Ticker Rollups
	sb.WriteString("## Ticker Rollups\n\n")
	if len(r.TickerRollups) > 0 {
		sb.WriteString("| Ticker | Closed | Wins | Losses | PnL |\n")
		sb.WriteString("|--------|--------|------|--------|-----|\n")
		for _, t := range r.TickerRollups {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.2f |\n",
				t.Ticker, t.ClosedCount, t.Wins, t.Losses, t.TotalPnL))
		}
	} else {
		sb.WriteString("No ticker rollups available.\n")
	}
	sb.WriteString("\n")

	// Active Positions
	sb.WriteString("## Active Positions\n\n")
	if len(r.ActivePositions) > 0 {
		sb.WriteString("| Trade | Ticker | Strategy | Entry Price | Size | Days Held |\n")
		sb.WriteString("|-------|--------|----------|-------------|------|----------|\n")
		for _, p := range r.ActivePositions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %.4f | %.1f |\n",
				p.TradeID, p.Ticker, p.Strategy, p.EntryPrice, p.Size, p.DaysHeld))
		}
	} else {
		sb.WriteString("No open positions.\n")
	}
	sb.WriteString("\n")

	// History
	sb.WriteString("## Previous Runs\n\n")
	if len(r.History) > 0 {
		sb.WriteString("| Run At (ms) | Closed | PnL | WinRate | ProfitFactor | Sharpe | Confidence |\n")
		sb.WriteString("|-------------|--------|-----|---------|--------------|--------|------------|\n")
		for _, h := range r.History {
			pf := fmt.Sprintf("%.4f", h.ProfitFactor)
			if h.ProfitFactorInf {
				pf = "+Inf"
			}
			sb.WriteString(fmt.Sprintf("| %d | %d | %.2f | %.4f | %s | %.4f | %.4f |\n",
				h.RunAt, h.TotalClosed, h.TotalPnL, h.WinRate, pf, h.Sharpe, h.Confidence))
		}
	} else {
		sb.WriteString("No archived runs available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatMetric(m domain.MetricResult) string {
	if !m.Usable() {
		return fmt.Sprintf("INSUFFICIENT (n=%d, min=%d)", m.SampleSize, m.MinimumRequired)
	}
	return fmt.Sprintf("%.4f", m.Value)
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "+Inf"
	}
	return fmt.Sprintf("%.4f", pf)
}
