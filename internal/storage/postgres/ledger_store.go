package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"coinledger/internal/domain"
	"coinledger/internal/storage"
)

// LedgerStore implements storage.LedgerStore using PostgreSQL.
// Named ledgers are rows in the ledgers table; entries live in a single
// ledger_entries table keyed by ledger_key, with BIGSERIAL ids preserving
// insertion order.
type LedgerStore struct {
	pool *Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// EnsureLedger creates the ledger for key if it does not exist. Idempotent.
func (s *LedgerStore) EnsureLedger(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO ledgers (key) VALUES ($1) ON CONFLICT (key) DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("ensure ledger %s: %w", key, err)
	}
	return nil
}

// Append adds a trade to the end of the ledger. Returns ErrNotFound if the
// key was never ensured.
func (s *LedgerStore) Append(ctx context.Context, key string, t *domain.Trade) error {
	if key == "" || t == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ledger_entries (
			ledger_key, ts, person, coin, price, quantity, venue, notional, side
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		key, t.Timestamp, t.Person, t.Coin, t.Price, t.Quantity, t.Venue, t.Notional, t.Side,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("append to ledger %s: %w", key, err)
	}
	return nil
}

// Scan retrieves all trades under key in insertion order. Returns
// ErrNotFound if the key was never ensured.
func (s *LedgerStore) Scan(ctx context.Context, key string) ([]*domain.Trade, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ledgers WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check ledger %s: %w", key, err)
	}
	if !exists {
		return nil, storage.ErrNotFound
	}

	query := `
		SELECT ts, person, coin, price, quantity, venue, notional, side
		FROM ledger_entries
		WHERE ledger_key = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("scan ledger %s: %w", key, err)
	}
	defer rows.Close()

	var result []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var price, quantity, notional decimal.Decimal
		if err := rows.Scan(&t.Timestamp, &t.Person, &t.Coin, &price, &quantity, &t.Venue, &notional, &t.Side); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		t.Price = price
		t.Quantity = quantity
		t.Notional = notional
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}

	return result, nil
}
