package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-audit-lab/internal/storage"
)

func TestMetricsSnapshotStore_RecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMetricsSnapshotStore()

	for _, runAt := range []int64{100, 300, 200} {
		require.NoError(t, s.Insert(ctx, &storage.MetricsSnapshot{RunAt: runAt}))
	}

	recent, err := s.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(300), recent[0].RunAt)
	assert.Equal(t, int64(200), recent[1].RunAt)
}

func TestMetricsSnapshotStore_NilRejected(t *testing.T) {
	s := NewMetricsSnapshotStore()
	assert.ErrorIs(t, s.Insert(context.Background(), nil), storage.ErrInvalidInput)
}

func TestMetricsSnapshotStore_ZeroLimitReturnsAll(t *testing.T) {
	ctx := context.Background()
	s := NewMetricsSnapshotStore()

	for _, runAt := range []int64{1, 2, 3} {
		require.NoError(t, s.Insert(ctx, &storage.MetricsSnapshot{RunAt: runAt}))
	}

	all, err := s.GetRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
