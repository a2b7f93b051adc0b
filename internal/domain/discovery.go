package domain

// TickerRollup is the per-ticker performance summary inside a
// DiscoveryPackage.
type TickerRollup struct {
	Ticker      string
	ClosedCount int
	Wins        int
	Losses      int
	TotalPnL    float64
}

// ActivePosition is one Open trade with its current exposure age.
type ActivePosition struct {
	TradeID    string
	Ticker     string
	Strategy   string
	EntryTime  int64 // Unix ms
	EntryPrice float64
	Size       float64
	DaysHeld   float64 // computed against the assembler clock
}

// DiscoveryPackage is the structured object handed to downstream reporting
// stages: validated metrics plus the context needed to present them.
type DiscoveryPackage struct {
	// Summary counts
	TotalTrades int
	ClosedCount int
	OpenCount   int

	// Breakdown
	StrategyDistribution map[string]int // strategy -> closed trade count
	TickerRollups        []TickerRollup // sorted by ticker ASC
	ActivePositions      []ActivePosition

	Metrics    *PortfolioMetrics
	Validation *ValidationReport

	// Overall confidence: min(cap, base + closedN/normalizer), scaled down
	// by the validation confidence.
	Confidence float64
}
