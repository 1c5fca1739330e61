package storage

import (
	"context"

	"coinledger/internal/domain"
)

// LedgerStore is a keyed append-only trade log. Keys address independent
// ledgers: the global key, one key per coin, one key per person. Ledgers
// are created lazily via EnsureLedger; appending or scanning a key that
// was never ensured returns ErrNotFound.
type LedgerStore interface {
	// EnsureLedger creates the ledger for key if it does not exist.
	// Idempotent.
	EnsureLedger(ctx context.Context, key string) error

	// Append adds a trade to the end of the ledger. Returns ErrNotFound
	// if the key was never ensured.
	Append(ctx context.Context, key string, t *domain.Trade) error

	// Scan retrieves all trades under key in insertion order.
	// Returns ErrNotFound if the key was never ensured.
	Scan(ctx context.Context, key string) ([]*domain.Trade, error)
}

// SnapshotStore holds one PriceSnapshot row per tracked coin. The set of
// rows is the tracked set: it only grows, rows are overwritten in place.
type SnapshotStore interface {
	// Upsert creates or overwrites the snapshot row for s.Coin.
	Upsert(ctx context.Context, s *domain.PriceSnapshot) error

	// Get retrieves the snapshot for a coin. Returns ErrNotFound if the
	// coin is not tracked.
	Get(ctx context.Context, coin string) (*domain.PriceSnapshot, error)

	// List retrieves all snapshots ordered by coin.
	List(ctx context.Context) ([]*domain.PriceSnapshot, error)
}

// PriceHistoryStore is an append-only record of price observations.
type PriceHistoryStore interface {
	// InsertBulk appends multiple points.
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByCoin retrieves all points for a coin, ordered by observation
	// time ASC.
	GetByCoin(ctx context.Context, coin string) ([]*domain.PricePoint, error)

	// GetByTimeRange retrieves points for a coin within [start, end]
	// (inclusive), ordered by observation time ASC.
	GetByTimeRange(ctx context.Context, coin string, start, end int64) ([]*domain.PricePoint, error)
}
