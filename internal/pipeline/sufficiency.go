package pipeline

import (
	"fmt"

	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/ledger"
)

// Sufficiency thresholds.
const (
	MaxRejectedShare = 0.05
	MinCoverageDays  = 7.0

	msPerDay = 24 * 60 * 60 * 1000
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all 5 checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
}

// SufficiencyChecker validates that the ledger carries enough usable data
// for the headline metrics to mean anything.
type SufficiencyChecker struct {
	minClosedTrades int
}

// NewSufficiencyChecker creates a sufficiency checker.
func NewSufficiencyChecker(minClosedTrades int) *SufficiencyChecker {
	if minClosedTrades < 1 {
		minClosedTrades = 1
	}
	return &SufficiencyChecker{minClosedTrades: minClosedTrades}
}

// Check performs all 5 sufficiency checks over one parsed ledger.
// records is the deduplicated record set, checkedClosed the number of
// closed trades that passed consistency validation.
func (c *SufficiencyChecker) Check(loaded *ledger.LoadResult, records []*domain.TradeRecord, checkedClosed, duplicates int) *SufficiencyResult {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 5),
		AllPass: true,
	}

	closed := 0
	for _, rec := range records {
		if rec.Closed() {
			closed++
		}
	}

	// Check 1: Closed trades >= minimum sample
	result.add(SufficiencyCheck{
		Name:      "Closed trades",
		Threshold: fmt.Sprintf(">= %d", c.minClosedTrades),
		Actual:    fmt.Sprintf("%d", closed),
		Pass:      closed >= c.minClosedTrades,
	})

	// Check 2: Rejected row share <= 5%
	totalRows := len(loaded.Records) + len(loaded.RowErrors)
	var rejectedShare float64
	if totalRows > 0 {
		rejectedShare = float64(len(loaded.RowErrors)) / float64(totalRows)
	}
	result.add(SufficiencyCheck{
		Name:      "Rejected row share",
		Threshold: fmt.Sprintf("<= %.0f%%", MaxRejectedShare*100),
		Actual:    fmt.Sprintf("%.2f%%", rejectedShare*100),
		Pass:      rejectedShare <= MaxRejectedShare,
	})

	// Check 3: Duplicate trade_id count == 0
	result.add(SufficiencyCheck{
		Name:      "Duplicate trade IDs",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", duplicates),
		Pass:      duplicates == 0,
	})

	// Check 4: Entry-time coverage >= 7 days
	coverage := coverageDays(records)
	result.add(SufficiencyCheck{
		Name:      "Date coverage",
		Threshold: fmt.Sprintf(">= %.0f days", MinCoverageDays),
		Actual:    fmt.Sprintf("%.1f days", coverage),
		Pass:      coverage >= MinCoverageDays,
	})

	// Check 5: Every closed trade consistency-checked
	result.add(SufficiencyCheck{
		Name:      "Validated closed trades",
		Threshold: fmt.Sprintf("== %d", closed),
		Actual:    fmt.Sprintf("%d", checkedClosed),
		Pass:      checkedClosed == closed,
	})

	return result
}

func (r *SufficiencyResult) add(check SufficiencyCheck) {
	r.Checks = append(r.Checks, check)
	if !check.Pass {
		r.AllPass = false
	}
}

// coverageDays is the entry-time span of the record set in days.
func coverageDays(records []*domain.TradeRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	minTime, maxTime := records[0].EntryTime, records[0].EntryTime
	for _, rec := range records[1:] {
		if rec.EntryTime < minTime {
			minTime = rec.EntryTime
		}
		if rec.EntryTime > maxTime {
			maxTime = rec.EntryTime
		}
	}
	return float64(maxTime-minTime) / msPerDay
}
