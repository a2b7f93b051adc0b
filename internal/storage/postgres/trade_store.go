package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/observability"
	"trade-audit-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, ticker, strategy,
	entry_time, entry_price, size,
	exit_time, exit_price,
	stored_pnl, stored_return, duration_days,
	status, outcome,
	max_favorable_excursion, max_adverse_excursion, exit_efficiency,
	external_ref
`

const insertTradeQuery = `
	INSERT INTO trade_records (
		trade_id, ticker, strategy,
		entry_time, entry_price, size,
		exit_time, exit_price,
		stored_pnl, stored_return, duration_days,
		status, outcome,
		max_favorable_excursion, max_adverse_excursion, exit_efficiency,
		external_ref
	) VALUES (
		$1, $2, $3,
		$4, $5, $6,
		$7, $8,
		$9, $10, $11,
		$12, $13,
		$14, $15, $16,
		$17
	)
`

func insertArgs(t *domain.TradeRecord) []any {
	return []any{
		t.TradeID, t.Ticker, t.Strategy,
		t.EntryTime, t.EntryPrice, t.Size,
		t.ExitTime, t.ExitPrice,
		t.StoredPnL, t.StoredReturn, t.DurationDays,
		string(t.Status), string(t.Outcome),
		t.MaxFavorableExcursion, t.MaxAdverseExcursion, t.ExitEfficiency,
		t.ExternalRef,
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	_, err := s.pool.Exec(ctx, insertTradeQuery, insertArgs(t)...)
	observability.RecordDBQuery("postgres", "insert_trade", time.Since(start).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) (err error) {
	if len(trades) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "insert_trades_bulk", time.Since(start).Seconds(), err)
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertTradeQuery, insertArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade record %s: %w", t.TradeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade_records WHERE trade_id = $1`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	observability.RecordDBQuery("postgres", "get_trade", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record: %w", err)
	}
	return t, nil
}

// GetAll retrieves all trades, ordered by entry_time ASC, trade_id ASC.
func (s *TradeStore) GetAll(ctx context.Context) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade_records ORDER BY entry_time ASC, trade_id ASC`
	return s.queryTrades(ctx, "get_all_trades", query)
}

// GetByStatus retrieves all trades with the given status.
func (s *TradeStore) GetByStatus(ctx context.Context, status domain.Status) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade_records WHERE status = $1 ORDER BY entry_time ASC, trade_id ASC`
	return s.queryTrades(ctx, "get_trades_by_status", query, string(status))
}

// GetByStrategy retrieves all trades for a strategy.
func (s *TradeStore) GetByStrategy(ctx context.Context, strategy string) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade_records WHERE strategy = $1 ORDER BY entry_time ASC, trade_id ASC`
	return s.queryTrades(ctx, "get_trades_by_strategy", query, strategy)
}

func (s *TradeStore) queryTrades(ctx context.Context, operation, query string, args ...any) ([]*domain.TradeRecord, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, query, args...)
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query trade records: %w", err)
	}
	defer rows.Close()

	var result []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return result, nil
}

func scanTrade(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	var status, outcome string

	err := row.Scan(
		&t.TradeID, &t.Ticker, &t.Strategy,
		&t.EntryTime, &t.EntryPrice, &t.Size,
		&t.ExitTime, &t.ExitPrice,
		&t.StoredPnL, &t.StoredReturn, &t.DurationDays,
		&status, &outcome,
		&t.MaxFavorableExcursion, &t.MaxAdverseExcursion, &t.ExitEfficiency,
		&t.ExternalRef,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.Status(status)
	t.Outcome = domain.Outcome(outcome)
	return &t, nil
}
