// Package consistency cross-checks stored ledger figures against values
// recomputed from raw prices. The ledger is authoritative, recomputation is
// the trust-but-verify guard against transcription and parsing errors.
package consistency

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"trade-audit-lab/internal/domain"
)

// Mismatch kinds.
type Kind string

const (
	KindPnLMismatch             Kind = "PnLMismatch"
	KindReturnMismatch          Kind = "ReturnMismatch"
	KindClassificationInvariant Kind = "ClassificationInvariantViolation"
	KindEmptyDataset            Kind = "EmptyDataset"
)

// Default tolerances: absolute for PnL, relative (fraction of notional)
// for return.
const (
	DefaultPnLTolerance    = 0.01
	DefaultReturnTolerance = 0.0001 // 0.01% of notional
)

// ConsistencyError is fatal for the whole batch: an aggregate built on a
// single unverified figure is worse than no result.
type ConsistencyError struct {
	Kind       Kind
	TradeID    string
	Ticker     string
	Stored     float64
	Recomputed float64
	Tolerance  float64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency: %s for trade %s (%s): stored=%.6f recomputed=%.6f tolerance=%.6f",
		e.Kind, e.TradeID, e.Ticker, e.Stored, e.Recomputed, e.Tolerance)
}

// Validator recomputes PnL and return from price and size.
type Validator struct {
	pnlTolerance    float64
	returnTolerance float64
	logger          *zap.Logger
}

// New creates a validator. Non-positive tolerances fall back to defaults.
func New(pnlTolerance, returnTolerance float64, logger *zap.Logger) *Validator {
	if pnlTolerance <= 0 {
		pnlTolerance = DefaultPnLTolerance
	}
	if returnTolerance <= 0 {
		returnTolerance = DefaultReturnTolerance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		pnlTolerance:    pnlTolerance,
		returnTolerance: returnTolerance,
		logger:          logger,
	}
}

// Validate cross-checks one closed record. Open records pass unchecked since
// they carry no stored figures.
func (v *Validator) Validate(rec *domain.TradeRecord) error {
	if !rec.Closed() {
		return nil
	}

	recomputedPnL := (rec.ExitPrice - rec.EntryPrice) * rec.Size
	if math.Abs(rec.StoredPnL-recomputedPnL) > v.pnlTolerance {
		return &ConsistencyError{
			Kind:       KindPnLMismatch,
			TradeID:    rec.TradeID,
			Ticker:     rec.Ticker,
			Stored:     rec.StoredPnL,
			Recomputed: recomputedPnL,
			Tolerance:  v.pnlTolerance,
		}
	}

	notional := rec.Notional()
	if notional <= 0 {
		return &ConsistencyError{
			Kind:       KindReturnMismatch,
			TradeID:    rec.TradeID,
			Ticker:     rec.Ticker,
			Stored:     rec.StoredReturn,
			Recomputed: 0,
			Tolerance:  v.returnTolerance,
		}
	}

	recomputedReturn := recomputedPnL / notional
	if math.Abs(rec.StoredReturn-recomputedReturn) > v.returnTolerance {
		return &ConsistencyError{
			Kind:       KindReturnMismatch,
			TradeID:    rec.TradeID,
			Ticker:     rec.Ticker,
			Stored:     rec.StoredReturn,
			Recomputed: recomputedReturn,
			Tolerance:  v.returnTolerance,
		}
	}

	return nil
}

// ValidateBatch checks every record and stops at the first mismatch.
// Open records pass through unchecked and do not count; the return is
// the number of closed records verified before any failure.
func (v *Validator) ValidateBatch(records []*domain.TradeRecord) (int, error) {
	if len(records) == 0 {
		return 0, &ConsistencyError{Kind: KindEmptyDataset, Tolerance: v.pnlTolerance}
	}

	checked := 0
	for _, rec := range records {
		if err := v.Validate(rec); err != nil {
			v.logger.Error("consistency check failed",
				zap.String("trade_id", rec.TradeID),
				zap.String("ticker", rec.Ticker),
				zap.Error(err),
			)
			return checked, err
		}
		if rec.Closed() {
			checked++
		}
	}

	v.logger.Debug("consistency batch verified",
		zap.Int("records", len(records)),
		zap.Int("closed_checked", checked),
	)
	return checked, nil
}
