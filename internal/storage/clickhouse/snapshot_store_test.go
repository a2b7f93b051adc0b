package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-audit-lab/internal/storage"
)

func TestMetricsSnapshotStore_Insert(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMetricsSnapshotStore(conn)
	ctx := context.Background()

	snap := &storage.MetricsSnapshot{
		RunAt:        1705309200000,
		TotalClosed:  42,
		Wins:         25,
		Losses:       15,
		Breakevens:   2,
		TotalPnL:     1250.75,
		WinRate:      0.625,
		ProfitFactor: 2.1,
		Sharpe:       1.4,
		MaxDrawdown:  -320.50,
		Confidence:   0.51,
	}

	err := store.Insert(ctx, snap)
	require.NoError(t, err)

	got, err := store.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1705309200000), got[0].RunAt)
	assert.Equal(t, int32(42), got[0].TotalClosed)
	assert.Equal(t, int32(25), got[0].Wins)
	assert.Equal(t, 1250.75, got[0].TotalPnL)
	assert.Equal(t, 2.1, got[0].ProfitFactor)
	assert.False(t, got[0].ProfitFactorInf)
}

func TestMetricsSnapshotStore_Insert_NilSnapshot(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMetricsSnapshotStore(conn)

	err := store.Insert(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestMetricsSnapshotStore_GetRecent_Ordering(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMetricsSnapshotStore(conn)
	ctx := context.Background()

	for _, runAt := range []int64{1705309200000, 1705914000000, 1706518800000} {
		err := store.Insert(ctx, &storage.MetricsSnapshot{
			RunAt:       runAt,
			TotalClosed: 10,
			Wins:        5,
			Losses:      4,
			Breakevens:  1,
			WinRate:     0.5,
			Confidence:  0.35,
		})
		require.NoError(t, err)
	}

	// Newest first.
	got, err := store.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1706518800000), got[0].RunAt)
	assert.Equal(t, int64(1705914000000), got[1].RunAt)
	assert.Equal(t, int64(1705309200000), got[2].RunAt)

	// Limit applies after ordering.
	got, err = store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1706518800000), got[0].RunAt)
}

func TestMetricsSnapshotStore_GetRecent_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMetricsSnapshotStore(conn)

	got, err := store.GetRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMetricsSnapshotStore_ProfitFactorInfRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMetricsSnapshotStore(conn)
	ctx := context.Background()

	// An all-winning run archives profit factor as zero plus the flag.
	err := store.Insert(ctx, &storage.MetricsSnapshot{
		RunAt:           1705309200000,
		TotalClosed:     8,
		Wins:            8,
		TotalPnL:        900.0,
		WinRate:         1.0,
		ProfitFactor:    0,
		ProfitFactorInf: true,
		Confidence:      0.34,
	})
	require.NoError(t, err)

	got, err := store.GetRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ProfitFactorInf)
	assert.Equal(t, 0.0, got[0].ProfitFactor)
}
