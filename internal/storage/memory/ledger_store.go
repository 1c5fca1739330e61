package memory

import (
	"context"
	"sync"

	"coinledger/internal/domain"
	"coinledger/internal/storage"
)

// LedgerStore is an in-memory implementation of storage.LedgerStore.
type LedgerStore struct {
	mu      sync.RWMutex
	ledgers map[string][]*domain.Trade // keyed by ledger key, insertion order
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		ledgers: make(map[string][]*domain.Trade),
	}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// EnsureLedger creates the ledger for key if it does not exist. Idempotent.
func (s *LedgerStore) EnsureLedger(_ context.Context, key string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ledgers[key]; !exists {
		s.ledgers[key] = nil
	}
	return nil
}

// Append adds a trade to the end of the ledger. Returns ErrNotFound if the
// key was never ensured.
func (s *LedgerStore) Append(_ context.Context, key string, t *domain.Trade) error {
	if key == "" || t == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ledgers[key]; !exists {
		return storage.ErrNotFound
	}

	copy := *t
	s.ledgers[key] = append(s.ledgers[key], &copy)
	return nil
}

// Scan retrieves all trades under key in insertion order. Returns
// ErrNotFound if the key was never ensured.
func (s *LedgerStore) Scan(_ context.Context, key string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, exists := s.ledgers[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.Trade, 0, len(rows))
	for _, t := range rows {
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}
