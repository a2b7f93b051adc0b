package pipeline

import (
	"context"
	"os"

	"trade-audit-lab/internal/storage"
)

// FixtureLedgerCSV is a small self-consistent ledger for demonstration
// runs. PnL and return columns agree with entry/exit prices, so the
// consistency validator accepts every row.
const FixtureLedgerCSV = `trade_id,ticker,strategy,status,entry_time,entry_price,size,exit_time,exit_price,pnl,return,duration_days,mfe,mae,exit_efficiency,ref
fx-001,AAPL,momentum,CLOSED,2024-01-02T10:00:00Z,185.00,10,2024-01-05T15:30:00Z,190.00,50.00,0.027027,3.23,60.00,-12.00,0.83,
fx-002,MSFT,momentum,CLOSED,2024-01-03T10:00:00Z,370.00,5,2024-01-09T15:00:00Z,366.00,-20.00,-0.010811,6.21,10.00,-25.00,0.40,
fx-003,NVDA,momentum,CLOSED,2024-01-04T11:00:00Z,480.00,4,2024-01-10T14:00:00Z,487.50,30.00,0.015625,6.13,45.00,-8.00,0.67,
fx-004,AAPL,momentum,CLOSED,2024-01-08T10:30:00Z,186.00,10,2024-01-12T15:00:00Z,185.00,-10.00,-0.005376,4.19,5.00,-15.00,0.33,
fx-005,GOOG,momentum,CLOSED,2024-01-09T10:00:00Z,140.00,10,2024-01-16T15:30:00Z,142.50,25.00,0.017857,7.23,30.00,-6.00,0.83,
fx-006,MSFT,momentum,CLOSED,2024-01-10T11:00:00Z,372.00,5,2024-01-17T14:30:00Z,371.00,-5.00,-0.002688,7.15,8.00,-12.00,0.38,
fx-007,NVDA,momentum,CLOSED,2024-01-11T10:00:00Z,490.00,4,2024-01-18T15:00:00Z,500.00,40.00,0.020408,7.21,55.00,-10.00,0.73,
fx-008,AAPL,swing,CLOSED,2024-01-12T10:00:00Z,187.00,10,2024-01-19T15:30:00Z,188.50,15.00,0.008021,7.23,22.00,-9.00,0.68,
fx-009,GOOG,swing,CLOSED,2024-01-15T10:00:00Z,141.00,10,2024-01-22T15:00:00Z,141.00,0.00,0.000000,7.21,12.00,-11.00,0.00,
fx-010,MSFT,swing,CLOSED,2024-01-16T10:30:00Z,374.00,5,2024-01-23T14:00:00Z,374.001,0.005,0.000003,7.15,6.00,-7.00,0.00,
fx-011,NVDA,swing,OPEN,2024-01-22T10:00:00Z,505.00,4,,,,,,,,,
fx-012,AAPL,swing,OPEN,2024-01-23T11:00:00Z,189.00,10,,,,,,,,,
`

// WriteFixtureLedger writes the fixture ledger to path.
func WriteFixtureLedger(path string) error {
	return os.WriteFile(path, []byte(FixtureLedgerCSV), 0644)
}

// LoadFixtureSnapshots seeds the snapshot store with two previous runs so
// fixture reports carry history.
func LoadFixtureSnapshots(ctx context.Context, store storage.MetricsSnapshotStore) error {
	snaps := []*storage.MetricsSnapshot{
		{
			RunAt:        1705309200000, // 2024-01-15 09:00:00 UTC
			TotalClosed:  6,
			Wins:         3,
			Losses:       2,
			Breakevens:   1,
			TotalPnL:     70,
			WinRate:      0.6,
			ProfitFactor: 3.33,
			Sharpe:       0.41,
			MaxDrawdown:  30,
			Confidence:   0.33,
		},
		{
			RunAt:        1705914000000, // 2024-01-22 09:00:00 UTC
			TotalClosed:  9,
			Wins:         5,
			Losses:       3,
			Breakevens:   1,
			TotalPnL:     125,
			WinRate:      0.625,
			ProfitFactor: 4.57,
			Sharpe:       0.52,
			MaxDrawdown:  30,
			Confidence:   0.345,
		},
	}

	for _, s := range snaps {
		if err := store.Insert(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
