package domain

// Status of a trade in the ledger.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Outcome classification of a closed trade. Assigned exactly once at
// validation time; there is no transition back.
type Outcome string

const (
	OutcomeWin       Outcome = "WIN"
	OutcomeLoss      Outcome = "LOSS"
	OutcomeBreakeven Outcome = "BREAKEVEN"
	// OutcomeUnclassified marks a record the classifier has not seen yet
	// (all Open trades, and Closed trades before validation).
	OutcomeUnclassified Outcome = ""
)

// TradeRecord represents one row of the authoritative trade ledger.
// Stored PnL and StoredReturn come from the ledger and are cross-checked
// against price math by the consistency validator before any aggregation.
type TradeRecord struct {
	TradeID  string // deterministic hash, or external reference if present
	Ticker   string
	Strategy string

	// Entry
	EntryTime  int64 // Unix ms
	EntryPrice float64
	Size       float64 // position size in units

	// Exit (zero values while the trade is open)
	ExitTime  int64 // Unix ms
	ExitPrice float64

	// Authoritative ledger figures
	StoredPnL    float64
	StoredReturn float64 // fraction of notional, e.g. 0.05 = +5%
	DurationDays float64

	Status  Status
	Outcome Outcome

	// Optional excursion fields (nullable in the source)
	MaxFavorableExcursion *float64
	MaxAdverseExcursion   *float64
	ExitEfficiency        *float64

	// Optional external reference id/link from the source ledger
	ExternalRef string
}

// Closed reports whether the record is eligible for performance metrics.
func (t *TradeRecord) Closed() bool {
	return t.Status == StatusClosed
}

// Notional is the position value at entry, used as the denominator for
// the relative return tolerance.
func (t *TradeRecord) Notional() float64 {
	return t.EntryPrice * t.Size
}

// Clone returns a deep copy. The optional excursion pointers are
// duplicated so the copy never aliases the original.
func (t *TradeRecord) Clone() *TradeRecord {
	c := *t
	c.MaxFavorableExcursion = cloneFloat(t.MaxFavorableExcursion)
	c.MaxAdverseExcursion = cloneFloat(t.MaxAdverseExcursion)
	c.ExitEfficiency = cloneFloat(t.ExitEfficiency)
	return &c
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
