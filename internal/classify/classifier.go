// Package classify assigns closed trades a Win/Loss/Breakeven outcome.
package classify

import (
	"fmt"
	"math"

	"trade-audit-lab/internal/domain"
)

// DefaultEpsilon is the absolute PnL band treated as breakeven.
// PnL values indistinguishable from zero under float noise must not be
// arbitrarily counted as wins or losses.
const DefaultEpsilon = 0.01

// Classifier assigns outcomes using a fixed absolute epsilon.
type Classifier struct {
	epsilon float64
}

// New creates a classifier. epsilon <= 0 falls back to DefaultEpsilon.
func New(epsilon float64) *Classifier {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Classifier{epsilon: epsilon}
}

// Epsilon returns the breakeven band.
func (c *Classifier) Epsilon() float64 {
	return c.epsilon
}

// Classify returns the outcome for a stored PnL value.
// Requires a finite input; |pnl| < epsilon is breakeven regardless of sign.
func (c *Classifier) Classify(storedPnL float64) (domain.Outcome, error) {
	if math.IsNaN(storedPnL) || math.IsInf(storedPnL, 0) {
		return domain.OutcomeUnclassified, fmt.Errorf("classify: stored pnl is not finite: %v", storedPnL)
	}

	if math.Abs(storedPnL) < c.epsilon {
		return domain.OutcomeBreakeven, nil
	}
	if storedPnL > 0 {
		return domain.OutcomeWin, nil
	}
	return domain.OutcomeLoss, nil
}
