package decision

import "fmt"

// Gate thresholds.
const (
	MinValidationConfidence = 0.8
	MinOverallConfidence    = 0.5
	MaxRowErrorRate         = 0.05
	FatalRowErrorRate       = 0.20
)

// Evaluator evaluates publish gate criteria.
type Evaluator struct{}

// NewEvaluator creates a new gate evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate produces DecisionResult from DecisionInput.
// GO if ALL criteria pass and NO NO-GO triggers.
// NO-GO if ANY criterion fails or ANY trigger fires.
func (e *Evaluator) Evaluate(input DecisionInput) *DecisionResult {
	goCriteria := e.evaluateGOCriteria(input)
	nogoChecks := e.evaluateNOGOTriggers(input)

	allGOPass := true
	for _, c := range goCriteria {
		if !c.Pass {
			allGOPass = false
			break
		}
	}

	anyNOGOTriggered := false
	for _, c := range nogoChecks {
		if !c.Pass { // Pass=false means triggered
			anyNOGOTriggered = true
			break
		}
	}

	decision := DecisionGO
	if !allGOPass || anyNOGOTriggered {
		decision = DecisionNOGO
	}

	return &DecisionResult{
		Decision:   decision,
		GOCriteria: goCriteria,
		NOGOChecks: nogoChecks,
	}
}

// evaluateGOCriteria evaluates the 5 GO criteria.
func (e *Evaluator) evaluateGOCriteria(input DecisionInput) []CriterionResult {
	criteria := make([]CriterionResult, 5)

	// 1. Closed sample large enough for headline metrics
	criteria[0] = CriterionResult{
		Name:      "Closed sample size",
		Threshold: fmt.Sprintf(">= %d", input.MinClosedTrades),
		Actual:    fmt.Sprintf("%d", input.ClosedTrades),
		Pass:      input.ClosedTrades >= input.MinClosedTrades,
	}

	// 2. Every self-validation check landed inside tolerance
	criteria[1] = CriterionResult{
		Name:      "Self-validation tolerances",
		Threshold: "all met",
		Actual:    fmt.Sprintf("%t", input.AllTolerancesMet),
		Pass:      input.AllTolerancesMet,
	}

	// 3. Validation confidence high enough to trust the numbers
	criteria[2] = CriterionResult{
		Name:      "Validation confidence",
		Threshold: fmt.Sprintf(">= %.2f", MinValidationConfidence),
		Actual:    fmt.Sprintf("%.4f", input.ValidationConfidence),
		Pass:      input.ValidationConfidence >= MinValidationConfidence,
	}

	// 4. Overall package confidence
	criteria[3] = CriterionResult{
		Name:      "Overall confidence",
		Threshold: fmt.Sprintf(">= %.2f", MinOverallConfidence),
		Actual:    fmt.Sprintf("%.4f", input.OverallConfidence),
		Pass:      input.OverallConfidence >= MinOverallConfidence,
	}

	// 5. Ledger row rejection rate within bounds
	criteria[4] = CriterionResult{
		Name:      "Row error rate",
		Threshold: fmt.Sprintf("<= %.0f%%", MaxRowErrorRate*100),
		Actual:    fmt.Sprintf("%.2f%%", input.RowErrorRate*100),
		Pass:      input.RowErrorRate <= MaxRowErrorRate,
	}

	return criteria
}

// evaluateNOGOTriggers evaluates the 4 NO-GO triggers.
// Pass=true means NOT triggered, Pass=false means triggered.
func (e *Evaluator) evaluateNOGOTriggers(input DecisionInput) []CriterionResult {
	checks := make([]CriterionResult, 4)

	// 1. Empty closed set triggers NO-GO
	triggered1 := input.ClosedTrades == 0
	checks[0] = CriterionResult{
		Name:      "Empty closed set",
		Threshold: "closed == 0",
		Actual:    fmt.Sprintf("%d", input.ClosedTrades),
		Pass:      !triggered1,
	}

	// 2. Any tolerance breach triggers NO-GO
	triggered2 := !input.AllTolerancesMet
	checks[1] = CriterionResult{
		Name:      "Tolerance breach",
		Threshold: "any check outside tolerance",
		Actual:    fmt.Sprintf("all met: %t", input.AllTolerancesMet),
		Pass:      !triggered2,
	}

	// 3. Ledger too corrupted to trust triggers NO-GO
	triggered3 := input.RowErrorRate > FatalRowErrorRate
	checks[2] = CriterionResult{
		Name:      "Corrupted ledger",
		Threshold: fmt.Sprintf("> %.0f%% rows rejected", FatalRowErrorRate*100),
		Actual:    fmt.Sprintf("%.2f%%", input.RowErrorRate*100),
		Pass:      !triggered3,
	}

	// 4. Duplicate trade identifiers trigger NO-GO
	triggered4 := input.DuplicateIDs > 0
	checks[3] = CriterionResult{
		Name:      "Duplicate trade IDs",
		Threshold: "> 0",
		Actual:    fmt.Sprintf("%d", input.DuplicateIDs),
		Pass:      !triggered4,
	}

	return checks
}
