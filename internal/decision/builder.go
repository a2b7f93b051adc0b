package decision

import (
	"errors"

	"trade-audit-lab/internal/domain"
)

// ErrNoPackage is returned when no discovery package is supplied.
var ErrNoPackage = errors.New("no discovery package to evaluate")

// LedgerQuality summarizes how the ledger parsed, for the gate.
type LedgerQuality struct {
	TotalRows    int
	RejectedRows int
	DuplicateIDs int
}

// BuildInput creates DecisionInput from a discovery package and ledger
// quality counts. minClosed is the calculator's minimum sample size.
func BuildInput(pkg *domain.DiscoveryPackage, quality LedgerQuality, minClosed int) (DecisionInput, error) {
	if pkg == nil {
		return DecisionInput{}, ErrNoPackage
	}

	var errorRate float64
	if quality.TotalRows > 0 {
		errorRate = float64(quality.RejectedRows) / float64(quality.TotalRows)
	}

	input := DecisionInput{
		ClosedTrades:      pkg.ClosedCount,
		MinClosedTrades:   minClosed,
		OverallConfidence: pkg.Confidence,
		RowErrorRate:      errorRate,
		DuplicateIDs:      quality.DuplicateIDs,
	}

	if pkg.Validation != nil {
		input.AllTolerancesMet = pkg.Validation.AllTolerancesMet
		input.ValidationConfidence = pkg.Validation.Confidence
	}

	return input, nil
}
