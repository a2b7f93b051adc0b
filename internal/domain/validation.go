package domain

// MetricCheck is one stored-vs-recomputed comparison inside a
// ValidationReport. Confidence decays linearly as the variance approaches
// the tolerance boundary, so partial degradation is visible before the
// tolerance flag flips.
type MetricCheck struct {
	Metric       string
	Reported     float64
	Recomputed   float64
	Variance     float64 // |reported - recomputed|
	Tolerance    float64
	ToleranceMet bool
	Confidence   float64 // 1.0 at zero variance, 0.0 at/after the boundary
}

// ValidationReport is the self-audit over a computed PortfolioMetrics.
// Downstream gating consults AllTolerancesMet and Confidence before
// publishing results.
type ValidationReport struct {
	Checks           []MetricCheck
	AllTolerancesMet bool
	Confidence       float64 // minimum of the per-check confidences
}
