package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coinledger/internal/domain"
	"coinledger/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Upsert creates or overwrites the snapshot row for s.Coin.
func (s *SnapshotStore) Upsert(ctx context.Context, snap *domain.PriceSnapshot) error {
	if snap == nil || snap.Coin == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO price_snapshots (coin, primary_price, secondary_price, observed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (coin) DO UPDATE SET
			primary_price = EXCLUDED.primary_price,
			secondary_price = EXCLUDED.secondary_price,
			observed_at = EXCLUDED.observed_at
	`

	_, err := s.pool.Exec(ctx, query,
		snap.Coin, toNullDecimal(snap.PrimaryPrice), toNullDecimal(snap.SecondaryPrice), snap.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", snap.Coin, err)
	}
	return nil
}

// Get retrieves the snapshot for a coin. Returns ErrNotFound if the coin
// is not tracked.
func (s *SnapshotStore) Get(ctx context.Context, coin string) (*domain.PriceSnapshot, error) {
	query := `
		SELECT coin, primary_price, secondary_price, observed_at
		FROM price_snapshots
		WHERE coin = $1
	`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, coin))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot %s: %w", coin, err)
	}
	return snap, nil
}

// List retrieves all snapshots ordered by coin.
func (s *SnapshotStore) List(ctx context.Context) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT coin, primary_price, secondary_price, observed_at
		FROM price_snapshots
		ORDER BY coin ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.PriceSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return result, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*domain.PriceSnapshot, error) {
	var snap domain.PriceSnapshot
	var primary, secondary decimal.NullDecimal
	var observedAt time.Time
	if err := row.Scan(&snap.Coin, &primary, &secondary, &observedAt); err != nil {
		return nil, err
	}
	snap.ObservedAt = observedAt
	if primary.Valid {
		p := primary.Decimal
		snap.PrimaryPrice = &p
	}
	if secondary.Valid {
		p := secondary.Decimal
		snap.SecondaryPrice = &p
	}
	return &snap, nil
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
