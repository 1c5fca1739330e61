package memory

import (
	"context"
	"sort"
	"sync"

	"coinledger/internal/domain"
	"coinledger/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu     sync.RWMutex
	points []*domain.PricePoint
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk appends multiple points.
func (s *PriceHistoryStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if p == nil || p.Coin == "" {
			return storage.ErrInvalidInput
		}
		copy := *p
		s.points = append(s.points, &copy)
	}
	return nil
}

// GetByCoin retrieves all points for a coin, ordered by observation time ASC.
func (s *PriceHistoryStore) GetByCoin(_ context.Context, coin string) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.points {
		if p.Coin == coin {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt.Before(result[j].ObservedAt)
	})

	return result, nil
}

// GetByTimeRange retrieves points for a coin within [start, end] (inclusive),
// bounds in Unix milliseconds.
func (s *PriceHistoryStore) GetByTimeRange(_ context.Context, coin string, start, end int64) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.points {
		ts := p.ObservedAt.UnixMilli()
		if p.Coin == coin && ts >= start && ts <= end {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt.Before(result[j].ObservedAt)
	})

	return result, nil
}
