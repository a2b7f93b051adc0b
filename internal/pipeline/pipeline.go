package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"trade-audit-lab/internal/classify"
	"trade-audit-lab/internal/config"
	"trade-audit-lab/internal/consistency"
	"trade-audit-lab/internal/decision"
	"trade-audit-lab/internal/discovery"
	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/ledger"
	"trade-audit-lab/internal/metrics"
	"trade-audit-lab/internal/observability"
	"trade-audit-lab/internal/reporting"
	"trade-audit-lab/internal/selfcheck"
	"trade-audit-lab/internal/storage"
)

// Output file names.
const (
	ReportFileName = "AUDIT_REPORT.md"
	CSVFileName    = "strategy_metrics.csv"
	GateFileName   = "PUBLISH_GATE.md"
)

// RunResult is everything one audit run produced.
type RunResult struct {
	Package  *domain.DiscoveryPackage
	Report   *reporting.Report
	Decision *decision.DecisionResult
	Quality  decision.LedgerQuality
}

// Pipeline runs the full audit: load, classify, validate, calculate,
// self-check, assemble, gate, report. A consistency failure aborts the
// run before any metric is published.
type Pipeline struct {
	cfg           *config.Config
	loader        *ledger.Loader
	classifier    *classify.Classifier
	validator     *consistency.Validator
	calculator    *metrics.Calculator
	selfChecker   *selfcheck.Validator
	assembler     *discovery.Assembler
	sufficiency   *SufficiencyChecker
	gate          *decision.Evaluator
	reportGen     *reporting.Generator
	tradeStore    storage.TradeStore
	snapshotStore storage.MetricsSnapshotStore // optional
	clock         func() time.Time
	logger        *zap.Logger
}

// New creates a pipeline wired from config. snapshotStore may be nil when
// no archive is configured.
func New(cfg *config.Config, tradeStore storage.TradeStore, snapshotStore storage.MetricsSnapshotStore, logger *zap.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		cfg:        cfg,
		loader:     ledger.NewLoader(logger),
		classifier: classify.New(cfg.Epsilon),
		validator:  consistency.New(cfg.PnLTolerance, cfg.ReturnTolerance, logger),
		calculator: metrics.NewCalculator(metrics.Config{
			PnLTolerance:   cfg.PnLTolerance,
			MinSampleSize:  cfg.MinSampleSize,
			AnnualRiskFree: cfg.AnnualRiskFree,
		}),
		selfChecker: selfcheck.New(selfcheck.Config{
			Epsilon:        cfg.Epsilon,
			AnnualRiskFree: cfg.AnnualRiskFree,
		}, logger),
		assembler: discovery.NewAssembler(discovery.Config{
			ConfidenceBase:       cfg.ConfidenceBase,
			ConfidenceCap:        cfg.ConfidenceCap,
			ConfidenceNormalizer: cfg.ConfidenceNormalizer,
		}, logger),
		sufficiency:   NewSufficiencyChecker(cfg.MinSampleSize),
		gate:          decision.NewEvaluator(),
		reportGen:     reporting.NewGenerator(tradeStore, snapshotStore),
		tradeStore:    tradeStore,
		snapshotStore: snapshotStore,
		clock:         func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

// WithClock sets a custom clock function for deterministic output. The
// calculator, assembler, and report generator share the same clock.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	p.calculator = p.calculator.WithClock(clock)
	p.assembler = p.assembler.WithClock(clock)
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// Run audits the ledger at path and writes output files into outputDir.
func (p *Pipeline) Run(ctx context.Context, ledgerPath, outputDir string) (*RunResult, error) {
	start := p.clock()

	result, err := p.run(ctx, ledgerPath, outputDir)

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordPipelineRun("audit", status, p.clock().Sub(start).Seconds())

	return result, err
}

// RunFromStore audits the trades already persisted in the trade store,
// without touching the ledger file. Used for re-reporting over stored data.
func (p *Pipeline) RunFromStore(ctx context.Context, outputDir string) (*RunResult, error) {
	start := p.clock()

	records, err := p.tradeStore.GetAll(ctx)
	var result *RunResult
	if err == nil {
		result, err = p.audit(ctx, &ledger.LoadResult{Records: records}, outputDir, false)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordPipelineRun("report", status, p.clock().Sub(start).Seconds())

	return result, err
}

func (p *Pipeline) run(ctx context.Context, ledgerPath, outputDir string) (*RunResult, error) {
	// Load the ledger. Malformed rows are collected, not fatal.
	loaded, err := p.loader.LoadFile(ledgerPath)
	if err != nil {
		return nil, err
	}
	for range loaded.Records {
		observability.RecordRowParsed()
	}
	for _, re := range loaded.RowErrors {
		observability.RecordRowRejected(re.Field)
	}

	return p.audit(ctx, loaded, outputDir, true)
}

// audit runs the stages downstream of loading. persist controls whether
// the validated records are written to the trade store.
func (p *Pipeline) audit(ctx context.Context, loaded *ledger.LoadResult, outputDir string, persist bool) (*RunResult, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	records, duplicates := dedupeByTradeID(loaded.Records)
	quality := decision.LedgerQuality{
		TotalRows:    len(loaded.Records) + len(loaded.RowErrors),
		RejectedRows: len(loaded.RowErrors),
		DuplicateIDs: duplicates,
	}

	// 1. Classify closed trades. Classification happens exactly once here;
	// downstream stages read the assigned outcome.
	for _, rec := range records {
		if !rec.Closed() {
			continue
		}
		outcome, err := p.classifier.Classify(rec.StoredPnL)
		if err != nil {
			return nil, fmt.Errorf("classify trade %s: %w", rec.TradeID, err)
		}
		rec.Outcome = outcome
	}

	// 2. Consistency validation. Fail fast: a single mismatch means the
	// ledger cannot be trusted and nothing downstream runs.
	checked, err := p.validator.ValidateBatch(records)
	if err != nil {
		if ce, ok := err.(*consistency.ConsistencyError); ok {
			observability.RecordConsistencyFailure(string(ce.Kind))
		}
		return nil, err
	}
	p.logger.Info("consistency validation passed", zap.Int("checked", checked))

	// 3. Persist the validated ledger.
	if persist {
		if err := p.tradeStore.InsertBulk(ctx, records); err != nil {
			return nil, fmt.Errorf("store trades: %w", err)
		}
	}

	closed := make([]*domain.TradeRecord, 0, len(records))
	for _, rec := range records {
		if rec.Closed() {
			closed = append(closed, rec)
		}
	}
	observability.DefaultMetrics.TradesAudited.Add(float64(len(records)))

	// 4. Metrics calculation.
	portfolio, err := p.calculator.Calculate(closed)
	if err != nil {
		return nil, err
	}

	// 5. Independent self-validation.
	validation := p.selfChecker.Validate(closed, portfolio)
	for _, c := range validation.Checks {
		if !c.ToleranceMet {
			observability.RecordToleranceMiss(c.Metric)
		}
	}

	// 6. Assemble the discovery package.
	pkg := p.assembler.Assemble(records, portfolio, validation)

	// 7. Sufficiency checks over the run.
	suff := p.sufficiency.Check(loaded, records, checked, duplicates)

	// 8. Publish gate.
	input, err := decision.BuildInput(pkg, quality, p.cfg.MinSampleSize)
	if err != nil {
		return nil, err
	}
	gateResult := p.gate.Evaluate(input)

	// 9. Archive the run. Re-reports over stored data do not archive.
	if persist && p.snapshotStore != nil && !portfolio.NoData() {
		if err := p.snapshotStore.Insert(ctx, snapshotFrom(portfolio, pkg, p.clock())); err != nil {
			return nil, fmt.Errorf("archive snapshot: %w", err)
		}
	}

	// 10. Generate and write the report.
	p.reportGen.Invalidate()
	report, err := p.reportGen.Generate(ctx, pkg, toDataQuality(suff, loaded))
	if err != nil {
		return nil, err
	}

	if err := p.writeOutputs(outputDir, report, gateResult); err != nil {
		return nil, err
	}
	observability.DefaultMetrics.ReportsGenerated.Inc()
	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(p.clock().UnixMilli()) / 1000)
	observability.DefaultMetrics.AuditConfidence.Set(pkg.Confidence)

	p.logger.Info("audit run complete",
		zap.Int("trades", len(records)),
		zap.Int("closed", len(closed)),
		zap.Float64("confidence", pkg.Confidence),
		zap.String("decision", string(gateResult.Decision)),
	)

	return &RunResult{
		Package:  pkg,
		Report:   report,
		Decision: gateResult,
		Quality:  quality,
	}, nil
}

func (p *Pipeline) writeOutputs(outputDir string, report *reporting.Report, gateResult *decision.DecisionResult) error {
	reportMD := reporting.RenderMarkdown(report)
	if err := os.WriteFile(filepath.Join(outputDir, ReportFileName), []byte(reportMD), 0644); err != nil {
		return err
	}

	csv := reporting.RenderCSV(report.StrategyMetrics)
	if err := os.WriteFile(filepath.Join(outputDir, CSVFileName), []byte(csv), 0644); err != nil {
		return err
	}

	gateMD := decision.RenderMarkdown(gateResult)
	return os.WriteFile(filepath.Join(outputDir, GateFileName), []byte(gateMD), 0644)
}

// dedupeByTradeID drops repeated trade IDs, keeping the first occurrence,
// and returns how many IDs appeared more than once.
func dedupeByTradeID(records []*domain.TradeRecord) ([]*domain.TradeRecord, int) {
	seen := make(map[string]bool, len(records))
	duplicated := make(map[string]bool)
	out := make([]*domain.TradeRecord, 0, len(records))

	for _, rec := range records {
		if seen[rec.TradeID] {
			duplicated[rec.TradeID] = true
			continue
		}
		seen[rec.TradeID] = true
		out = append(out, rec)
	}
	return out, len(duplicated)
}

// snapshotFrom flattens the headline metrics into an archive row. An
// infinite profit factor is stored as zero with an explicit flag so the
// value survives the round-trip.
func snapshotFrom(m *domain.PortfolioMetrics, pkg *domain.DiscoveryPackage, at time.Time) *storage.MetricsSnapshot {
	snap := &storage.MetricsSnapshot{
		RunAt:        at.UnixMilli(),
		TotalClosed:  int32(m.TotalClosed),
		Wins:         int32(m.Wins),
		Losses:       int32(m.Losses),
		Breakevens:   int32(m.Breakevens),
		TotalPnL:     m.TotalPnL,
		WinRate:      m.WinRate,
		ProfitFactor: m.ProfitFactor,
		Sharpe:       m.Sharpe,
		MaxDrawdown:  m.MaxDrawdown,
		Confidence:   pkg.Confidence,
	}
	if math.IsInf(m.ProfitFactor, 1) {
		snap.ProfitFactor = 0
		snap.ProfitFactorInf = true
	}
	return snap
}

// toDataQuality converts sufficiency results for the report.
func toDataQuality(suff *SufficiencyResult, loaded *ledger.LoadResult) reporting.DataQualitySection {
	section := reporting.DataQualitySection{
		SufficiencyChecks: make([]reporting.SufficiencyCheckRow, len(suff.Checks)),
		AllChecksPassed:   suff.AllPass,
	}
	for i, c := range suff.Checks {
		section.SufficiencyChecks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	for _, re := range loaded.RowErrors {
		section.RowErrors = append(section.RowErrors, re.Error())
	}
	return section
}
