package storage

import (
	"context"

	"trade-audit-lab/internal/domain"
)

// TradeStore provides access to trade_records storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetAll retrieves all trades, ordered by entry_time ASC, trade_id ASC.
	GetAll(ctx context.Context) ([]*domain.TradeRecord, error)

	// GetByStatus retrieves all trades with the given status, same ordering as GetAll.
	GetByStatus(ctx context.Context, status domain.Status) ([]*domain.TradeRecord, error)

	// GetByStrategy retrieves all trades for a strategy, same ordering as GetAll.
	GetByStrategy(ctx context.Context, strategy string) ([]*domain.TradeRecord, error)
}

// MetricsSnapshotStore archives computed portfolio metrics, one row per
// pipeline run, for longitudinal comparison across runs.
type MetricsSnapshotStore interface {
	// Insert archives one snapshot. Append-only.
	Insert(ctx context.Context, s *MetricsSnapshot) error

	// GetRecent retrieves the most recent snapshots, newest first.
	GetRecent(ctx context.Context, limit int) ([]*MetricsSnapshot, error)
}

// MetricsSnapshot is the flattened archive row for one run's headline
// metrics. ProfitFactor is stored as a finite value plus an explicit flag
// so +Inf survives the round-trip.
type MetricsSnapshot struct {
	RunAt           int64 // Unix ms
	TotalClosed     int32
	Wins            int32
	Losses          int32
	Breakevens      int32
	TotalPnL        float64
	WinRate         float64
	ProfitFactor    float64
	ProfitFactorInf bool
	Sharpe          float64
	MaxDrawdown     float64
	Confidence      float64
}
