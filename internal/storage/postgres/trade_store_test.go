package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-audit-lab/internal/domain"
	"trade-audit-lab/internal/storage"
)

func sampleTrade(id string, entryTime int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:               id,
		Ticker:                "AAPL",
		Strategy:              "momentum",
		EntryTime:             entryTime,
		EntryPrice:            100,
		Size:                  10,
		ExitTime:              entryTime + 86_400_000,
		ExitPrice:             105,
		StoredPnL:             50,
		StoredReturn:          0.05,
		DurationDays:          1,
		Status:                domain.StatusClosed,
		Outcome:               domain.OutcomeWin,
		MaxFavorableExcursion: ptr(7.5),
		MaxAdverseExcursion:   ptr(-2.0),
		ExternalRef:           "broker-123",
	}
}

func TestTradeStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	want := sampleTrade("t1", 1700000000000)
	require.NoError(t, store.Insert(ctx, want))

	got, err := store.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTradeStore_DuplicateKeyMapped(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, sampleTrade("t1", 1700000000000)))
	assert.ErrorIs(t, store.Insert(ctx, sampleTrade("t1", 1700000000000)), storage.ErrDuplicateKey)
}

func TestTradeStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)
	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, sampleTrade("t1", 1700000000000)))

	batch := []*domain.TradeRecord{
		sampleTrade("t2", 1700003600000),
		sampleTrade("t1", 1700000000000), // duplicate rolls back the batch
	}
	assert.ErrorIs(t, store.InsertBulk(ctx, batch), storage.ErrDuplicateKey)

	_, err := store.GetByID(ctx, "t2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_GetAllOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.TradeRecord{
		sampleTrade("b", 1700003600000),
		sampleTrade("a", 1700003600000),
		sampleTrade("c", 1700000000000),
	}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].TradeID)
	assert.Equal(t, "a", all[1].TradeID)
	assert.Equal(t, "b", all[2].TradeID)
}

func TestTradeStore_GetByStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	closed := sampleTrade("t1", 1700000000000)
	open := &domain.TradeRecord{
		TradeID:    "t2",
		Ticker:     "NVDA",
		Strategy:   "momentum",
		EntryTime:  1700003600000,
		EntryPrice: 500,
		Size:       2,
		Status:     domain.StatusOpen,
	}
	require.NoError(t, store.InsertBulk(ctx, []*domain.TradeRecord{closed, open}))

	got, err := store.GetByStatus(ctx, domain.StatusOpen)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t2", got[0].TradeID)
	assert.Nil(t, got[0].MaxFavorableExcursion)
}
