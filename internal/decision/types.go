package decision

// Decision represents the final publish gate result.
type Decision string

const (
	DecisionGO   Decision = "GO"
	DecisionNOGO Decision = "NO-GO"
)

// DecisionInput contains the audit outcomes the publish gate evaluates.
type DecisionInput struct {
	// Closed sample available to the calculator
	ClosedTrades    int
	MinClosedTrades int

	// Self-validation outcome
	AllTolerancesMet     bool
	ValidationConfidence float64

	// Overall confidence attached to the discovery package
	OverallConfidence float64

	// Ledger quality: rejected rows / total rows, 0 when the file was empty
	RowErrorRate float64

	// Trade identifiers seen more than once in the ledger
	DuplicateIDs int
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DecisionResult contains the final decision with checklist.
type DecisionResult struct {
	Decision   Decision
	GOCriteria []CriterionResult
	NOGOChecks []CriterionResult
}
