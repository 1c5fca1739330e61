package memory

import (
	"context"
	"sort"
	"sync"

	"coinledger/internal/domain"
	"coinledger/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceSnapshot // keyed by coin
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.PriceSnapshot),
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Upsert creates or overwrites the snapshot row for s.Coin.
func (s *SnapshotStore) Upsert(_ context.Context, snap *domain.PriceSnapshot) error {
	if snap == nil || snap.Coin == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	s.data[snap.Coin] = &copy
	return nil
}

// Get retrieves the snapshot for a coin. Returns ErrNotFound if the coin
// is not tracked.
func (s *SnapshotStore) Get(_ context.Context, coin string) (*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[coin]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *snap
	return &copy, nil
}

// List retrieves all snapshots ordered by coin.
func (s *SnapshotStore) List(_ context.Context) ([]*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PriceSnapshot, 0, len(s.data))
	for _, snap := range s.data {
		copy := *snap
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Coin < result[j].Coin
	})

	return result, nil
}
