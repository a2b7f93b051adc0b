package memory

import (
	"context"
	"sort"
	"sync"

	"trade-audit-lab/internal/storage"
)

// MetricsSnapshotStore is an in-memory implementation of
// storage.MetricsSnapshotStore.
type MetricsSnapshotStore struct {
	mu   sync.RWMutex
	data []*storage.MetricsSnapshot
}

// NewMetricsSnapshotStore creates a new in-memory snapshot store.
func NewMetricsSnapshotStore() *MetricsSnapshotStore {
	return &MetricsSnapshotStore{}
}

// Insert archives one snapshot.
func (s *MetricsSnapshotStore) Insert(_ context.Context, snap *storage.MetricsSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	s.data = append(s.data, &copy)
	return nil
}

// GetRecent retrieves the most recent snapshots, newest first.
func (s *MetricsSnapshotStore) GetRecent(_ context.Context, limit int) ([]*storage.MetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.MetricsSnapshot, 0, len(s.data))
	for _, snap := range s.data {
		copy := *snap
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RunAt > result[j].RunAt
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.MetricsSnapshotStore = (*MetricsSnapshotStore)(nil)
