package pipeline

import (
	"fmt"
	"testing"

	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/ledger"
)

func closedRecord(id string, entryMs int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:   id,
		Ticker:    "AAPL",
		Strategy:  "momentum",
		Status:    domain.StatusClosed,
		EntryTime: entryMs,
	}
}

// spanRecords builds n closed trades spread one day apart.
func spanRecords(n int) []*domain.TradeRecord {
	records := make([]*domain.TradeRecord, n)
	for i := range records {
		records[i] = closedRecord(fmt.Sprintf("t-%d", i), 1704153600000+int64(i)*msPerDay)
	}
	return records
}

func TestSufficiency_AllPass(t *testing.T) {
	records := spanRecords(10)
	loaded := &ledger.LoadResult{Records: records}

	result := NewSufficiencyChecker(5).Check(loaded, records, 10, 0)

	if !result.AllPass {
		t.Errorf("all checks should pass: %+v", result.Checks)
	}
	if len(result.Checks) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(result.Checks))
	}
}

func TestSufficiency_ThinClosedSample(t *testing.T) {
	records := spanRecords(8)
	// Three of them open: closed drops below the minimum of 6.
	for _, rec := range records[:3] {
		rec.Status = domain.StatusOpen
	}
	loaded := &ledger.LoadResult{Records: records}

	result := NewSufficiencyChecker(6).Check(loaded, records, 5, 0)

	if result.AllPass {
		t.Error("expected failure")
	}
	if result.Checks[0].Pass {
		t.Errorf("closed trades check should fail: %+v", result.Checks[0])
	}
}

func TestSufficiency_RejectedShare(t *testing.T) {
	records := spanRecords(9)
	loaded := &ledger.LoadResult{
		Records:   records,
		RowErrors: []*ledger.RowError{{Line: 3, Field: "pnl", Msg: "bad"}},
	}

	// 1 rejected out of 10 rows is 10%, over the 5% bound.
	result := NewSufficiencyChecker(5).Check(loaded, records, 9, 0)

	if result.Checks[1].Pass {
		t.Errorf("rejected share check should fail: %+v", result.Checks[1])
	}
}

func TestSufficiency_Duplicates(t *testing.T) {
	records := spanRecords(10)
	loaded := &ledger.LoadResult{Records: records}

	result := NewSufficiencyChecker(5).Check(loaded, records, 10, 2)

	if result.Checks[2].Pass {
		t.Errorf("duplicate check should fail: %+v", result.Checks[2])
	}
}

func TestSufficiency_ShortCoverage(t *testing.T) {
	// All trades on the same day.
	records := make([]*domain.TradeRecord, 10)
	for i := range records {
		records[i] = closedRecord(fmt.Sprintf("t-%d", i), 1704153600000)
	}
	loaded := &ledger.LoadResult{Records: records}

	result := NewSufficiencyChecker(5).Check(loaded, records, 10, 0)

	if result.Checks[3].Pass {
		t.Errorf("coverage check should fail: %+v", result.Checks[3])
	}
}

func TestSufficiency_UncheckedClosed(t *testing.T) {
	records := spanRecords(10)
	loaded := &ledger.LoadResult{Records: records}

	result := NewSufficiencyChecker(5).Check(loaded, records, 7, 0)

	if result.Checks[4].Pass {
		t.Errorf("validated closed check should fail: %+v", result.Checks[4])
	}
}

func TestSufficiency_OpenPositionsNotCountedAsUnchecked(t *testing.T) {
	records := spanRecords(10)
	// Two open positions: validation skips them, the check compares
	// against the closed tally only.
	records[8].Status = domain.StatusOpen
	records[9].Status = domain.StatusOpen
	loaded := &ledger.LoadResult{Records: records}

	result := NewSufficiencyChecker(5).Check(loaded, records, 8, 0)

	if !result.Checks[4].Pass {
		t.Errorf("validated closed check should pass with open positions present: %+v", result.Checks[4])
	}
	if !result.AllPass {
		t.Errorf("all checks should pass: %+v", result.Checks)
	}
}

func TestSufficiency_EmptyLedger(t *testing.T) {
	result := NewSufficiencyChecker(5).Check(&ledger.LoadResult{}, nil, 0, 0)

	if result.AllPass {
		t.Error("empty ledger should not pass")
	}
	// Rejected share is 0 of 0 rows; the check itself passes.
	if !result.Checks[1].Pass {
		t.Error("rejected share should pass on an empty ledger")
	}
}
