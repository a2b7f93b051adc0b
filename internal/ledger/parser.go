package ledger

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/idhash"
)

// parseRow converts one CSV record into a TradeRecord.
// Money and return fields go through shopspring/decimal so formatting noise
// ("$1,234.50", " -0.05 ") is stripped exactly before the float conversion.
func parseRow(cols map[string]int, row []string, line int) (*domain.TradeRecord, *RowError) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	ticker := get("ticker")
	if ticker == "" {
		return nil, &RowError{Line: line, Field: "ticker", Msg: "empty"}
	}

	strategy := get("strategy")
	if strategy == "" {
		return nil, &RowError{Line: line, Field: "strategy", Msg: "empty"}
	}

	status, err := parseStatus(get("status"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "status", Msg: err.Error()}
	}

	entryTime, err := parseTimestamp(get("entry_time"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "entry_time", Msg: err.Error()}
	}

	entryPrice, err := parseMoney(get("entry_price"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "entry_price", Msg: err.Error()}
	}
	if entryPrice <= 0 {
		return nil, &RowError{Line: line, Field: "entry_price", Msg: "must be positive"}
	}

	size, err := parseMoney(get("size"))
	if err != nil {
		return nil, &RowError{Line: line, Field: "size", Msg: err.Error()}
	}
	if size <= 0 {
		return nil, &RowError{Line: line, Field: "size", Msg: "must be positive"}
	}

	rec := &domain.TradeRecord{
		Ticker:      ticker,
		Strategy:    strategy,
		Status:      status,
		EntryTime:   entryTime,
		EntryPrice:  entryPrice,
		Size:        size,
		ExternalRef: get(colExternalRef),
	}

	if status == domain.StatusClosed {
		if err := parseClosedFields(rec, get, line); err != nil {
			return nil, err
		}
	} else {
		// Open trades must not carry exit-side values.
		for _, name := range []string{"exit_time", "exit_price", "pnl", "return", "duration_days"} {
			if get(name) != "" {
				return nil, &RowError{Line: line, Field: name, Msg: "must be empty for OPEN trade"}
			}
		}
	}

	for _, opt := range []struct {
		name string
		dst  **float64
	}{
		{colMFE, &rec.MaxFavorableExcursion},
		{colMAE, &rec.MaxAdverseExcursion},
		{colExitEfficiency, &rec.ExitEfficiency},
	} {
		raw := get(opt.name)
		if raw == "" {
			continue
		}
		v, err := parseMoney(raw)
		if err != nil {
			return nil, &RowError{Line: line, Field: opt.name, Msg: err.Error()}
		}
		*opt.dst = &v
	}

	if id := get("trade_id"); id != "" {
		rec.TradeID = id
	} else if rec.ExternalRef != "" {
		rec.TradeID = rec.ExternalRef
	} else {
		rec.TradeID = idhash.ComputeTradeID(ticker, entryTime, entryPrice, size, strategy)
	}

	return rec, nil
}

// parseClosedFields fills exit-side values, required for CLOSED rows.
func parseClosedFields(rec *domain.TradeRecord, get func(string) string, line int) *RowError {
	exitTime, err := parseTimestamp(get("exit_time"))
	if err != nil {
		return &RowError{Line: line, Field: "exit_time", Msg: err.Error()}
	}
	if exitTime < rec.EntryTime {
		return &RowError{Line: line, Field: "exit_time", Msg: "before entry_time"}
	}

	exitPrice, err := parseMoney(get("exit_price"))
	if err != nil {
		return &RowError{Line: line, Field: "exit_price", Msg: err.Error()}
	}
	if exitPrice <= 0 {
		return &RowError{Line: line, Field: "exit_price", Msg: "must be positive"}
	}

	pnl, err := parseMoney(get("pnl"))
	if err != nil {
		return &RowError{Line: line, Field: "pnl", Msg: err.Error()}
	}
	if math.IsNaN(pnl) || math.IsInf(pnl, 0) {
		return &RowError{Line: line, Field: "pnl", Msg: "not finite"}
	}

	ret, err := parseMoney(get("return"))
	if err != nil {
		return &RowError{Line: line, Field: "return", Msg: err.Error()}
	}

	duration, err := parseMoney(get("duration_days"))
	if err != nil {
		return &RowError{Line: line, Field: "duration_days", Msg: err.Error()}
	}
	if duration < 0 {
		return &RowError{Line: line, Field: "duration_days", Msg: "negative"}
	}

	rec.ExitTime = exitTime
	rec.ExitPrice = exitPrice
	rec.StoredPnL = pnl
	rec.StoredReturn = ret
	rec.DurationDays = duration
	return nil
}

func parseStatus(raw string) (domain.Status, error) {
	switch strings.ToUpper(raw) {
	case "OPEN":
		return domain.StatusOpen, nil
	case "CLOSED":
		return domain.StatusClosed, nil
	default:
		return "", strconvError(raw, "expected OPEN or CLOSED")
	}
}

// parseTimestamp accepts RFC3339 or Unix milliseconds.
func parseTimestamp(raw string) (int64, error) {
	if raw == "" {
		return 0, strconvError(raw, "empty")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UnixMilli(), nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, strconvError(raw, "expected RFC3339 or Unix ms")
	}
	return ms, nil
}

// parseMoney parses a numeric field, tolerating currency formatting.
func parseMoney(raw string) (float64, error) {
	if raw == "" {
		return 0, strconvError(raw, "empty")
	}
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "").Replace(raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, strconvError(raw, "not a number")
	}
	return d.InexactFloat64(), nil
}

type parseError struct {
	raw string
	msg string
}

func (e *parseError) Error() string {
	return e.msg + ": " + strconv.Quote(e.raw)
}

func strconvError(raw, msg string) error {
	return &parseError{raw: raw, msg: msg}
}
