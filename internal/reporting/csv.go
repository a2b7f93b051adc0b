package reporting

import (
	"fmt"
	"strings"

	"trade-audit-lab/internal/domain"
)

// RenderCSV renders per-strategy metrics as CSV string. Insufficient
// strata keep their counts but leave metric columns empty.
func RenderCSV(rows []StrategyMetricRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("strategy,total_closed,wins,losses,breakevens,total_pnl,")
	sb.WriteString("win_rate,profit_factor,sharpe,avg_win,avg_loss,status\n")

	// Rows
	for _, r := range rows {
		status := string(domain.MetricOK)
		if !r.WinRate.Usable() {
			status = string(domain.MetricInsufficient)
		}
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%.6f,%s,%s,%s,%s,%s,%s\n",
			r.Strategy,
			r.TotalClosed,
			r.Wins,
			r.Losses,
			r.Breakevens,
			r.TotalPnL,
			csvMetric(r.WinRate),
			csvMetric(r.ProfitFactor),
			csvMetric(r.Sharpe),
			csvMetric(r.AvgWin),
			csvMetric(r.AvgLoss),
			status,
		))
	}

	return sb.String()
}

func csvMetric(m domain.MetricResult) string {
	if !m.Usable() {
		return ""
	}
	return fmt.Sprintf("%.6f", m.Value)
}
