// Package ledger parses the row-oriented trade ledger into typed records.
// Parsing issues are reported per row as explicit results rather than
// panics or logs; the caller decides whether a bad row aborts the batch.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"trade-audit-lab/internal/domain"
)

// Required header columns, in no particular order.
var requiredColumns = []string{
	"ticker", "strategy", "status",
	"entry_time", "entry_price", "size",
	"exit_time", "exit_price",
	"pnl", "return", "duration_days",
}

// Optional columns.
const (
	colMFE            = "mfe"
	colMAE            = "mae"
	colExitEfficiency = "exit_efficiency"
	colExternalRef    = "ref"
)

// RowError describes a malformed ledger row. Line is 1-based and counts the
// header, matching what an operator sees in a text editor.
type RowError struct {
	Line  int
	Field string
	Msg   string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("ledger row %d: field %q: %s", e.Line, e.Field, e.Msg)
	}
	return fmt.Sprintf("ledger row %d: %s", e.Line, e.Msg)
}

// LoadResult carries parsed records alongside per-row errors. Records and
// RowErrors partition the data rows of the source.
type LoadResult struct {
	Records   []*domain.TradeRecord
	RowErrors []*RowError
}

// Loader parses CSV trade ledgers.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a ledger loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadFile opens and parses a ledger file.
func (l *Loader) LoadFile(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	return l.Load(f)
}

// Load parses a ledger from a reader. A missing or malformed header is a
// top-level error; malformed data rows are collected in LoadResult.RowErrors
// with the remaining rows parsed normally.
func (l *Loader) Load(r io.Reader) (*LoadResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read ledger header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{}
	line := 1 // header consumed

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.RowErrors = append(result.RowErrors, &RowError{
				Line: line,
				Msg:  err.Error(),
			})
			continue
		}

		rec, rowErr := parseRow(cols, row, line)
		if rowErr != nil {
			result.RowErrors = append(result.RowErrors, rowErr)
			continue
		}
		result.Records = append(result.Records, rec)
	}

	l.logger.Info("ledger loaded",
		zap.Int("records", len(result.Records)),
		zap.Int("rejected_rows", len(result.RowErrors)),
	)

	return result, nil
}

// indexColumns maps column names to positions and verifies required columns.
func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("ledger header missing required column %q", name)
		}
	}
	return cols, nil
}
