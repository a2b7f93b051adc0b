package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trade-audit-lab/internal/observability"
	"trade-audit-lab/internal/storage"
)

// MetricsSnapshotStore implements storage.MetricsSnapshotStore using
// ClickHouse. One row per pipeline run; MergeTree ordered by run_at.
type MetricsSnapshotStore struct {
	conn *Conn
}

// NewMetricsSnapshotStore creates a new MetricsSnapshotStore.
func NewMetricsSnapshotStore(conn *Conn) *MetricsSnapshotStore {
	return &MetricsSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MetricsSnapshotStore = (*MetricsSnapshotStore)(nil)

// Insert archives one snapshot.
func (s *MetricsSnapshotStore) Insert(ctx context.Context, snap *storage.MetricsSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO metrics_snapshots (
			run_at, total_closed, wins, losses, breakevens,
			total_pnl, win_rate, profit_factor, profit_factor_inf,
			sharpe, max_drawdown, confidence
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?
		)
	`

	start := time.Now()
	err := s.conn.Exec(ctx, query,
		snap.RunAt, snap.TotalClosed, snap.Wins, snap.Losses, snap.Breakevens,
		snap.TotalPnL, snap.WinRate, snap.ProfitFactor, snap.ProfitFactorInf,
		snap.Sharpe, snap.MaxDrawdown, snap.Confidence,
	)
	observability.RecordDBQuery("clickhouse", "insert_snapshot", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert metrics snapshot: %w", err)
	}
	return nil
}

// GetRecent retrieves the most recent snapshots, newest first.
func (s *MetricsSnapshotStore) GetRecent(ctx context.Context, limit int) ([]*storage.MetricsSnapshot, error) {
	query := `
		SELECT run_at, total_closed, wins, losses, breakevens,
		       total_pnl, win_rate, profit_factor, profit_factor_inf,
		       sharpe, max_drawdown, confidence
		FROM metrics_snapshots
		ORDER BY run_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, args...)
	observability.RecordDBQuery("clickhouse", "get_recent_snapshots", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query metrics snapshots: %w", err)
	}
	defer rows.Close()

	var result []*storage.MetricsSnapshot
	for rows.Next() {
		var snap storage.MetricsSnapshot
		if err := rows.Scan(
			&snap.RunAt, &snap.TotalClosed, &snap.Wins, &snap.Losses, &snap.Breakevens,
			&snap.TotalPnL, &snap.WinRate, &snap.ProfitFactor, &snap.ProfitFactorInf,
			&snap.Sharpe, &snap.MaxDrawdown, &snap.Confidence,
		); err != nil {
			return nil, fmt.Errorf("scan metrics snapshot: %w", err)
		}
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics snapshots: %w", err)
	}
	return result, nil
}
