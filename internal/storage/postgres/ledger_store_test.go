package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinledger/internal/domain"
	"coinledger/internal/storage"
	"coinledger/internal/storage/postgres"
)

func newTrade(person, coin string, price, qty float64, side string) *domain.Trade {
	p := decimal.NewFromFloat(price)
	q := decimal.NewFromFloat(qty)
	return &domain.Trade{
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Person:    person,
		Coin:      coin,
		Price:     p,
		Quantity:  q,
		Venue:     "binance",
		Notional:  p.Mul(q),
		Side:      side,
	}
}

func TestLedgerStore_AppendAndScan(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewLedgerStore(pool)
	ctx := context.Background()

	key := storage.CoinLedgerKey("BTC")
	require.NoError(t, store.EnsureLedger(ctx, key))

	first := newTrade("alice", "BTC", 50000, 0.1, domain.SideBuy)
	second := newTrade("bob", "BTC", 60000, 0.05, domain.SideSell)
	require.NoError(t, store.Append(ctx, key, first))
	require.NoError(t, store.Append(ctx, key, second))

	rows, err := store.Scan(ctx, key)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Insertion order preserved
	assert.Equal(t, "alice", rows[0].Person)
	assert.Equal(t, "bob", rows[1].Person)
	assert.True(t, rows[0].Price.Equal(decimal.NewFromInt(50000)), "price round-trips exactly")
	assert.True(t, rows[0].Notional.Equal(decimal.NewFromInt(5000)), "notional round-trips exactly")
	assert.Equal(t, domain.SideSell, rows[1].Side)
}

func TestLedgerStore_UnknownKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewLedgerStore(pool)
	ctx := context.Background()

	_, err := store.Scan(ctx, storage.CoinLedgerKey("DOGE"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Append(ctx, storage.CoinLedgerKey("DOGE"), newTrade("alice", "DOGE", 0.1, 100, domain.SideBuy))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLedgerStore_EnsureIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewLedgerStore(pool)
	ctx := context.Background()

	key := storage.PersonLedgerKey("alice")
	require.NoError(t, store.EnsureLedger(ctx, key))
	require.NoError(t, store.Append(ctx, key, newTrade("alice", "BTC", 50000, 0.1, domain.SideBuy)))
	require.NoError(t, store.EnsureLedger(ctx, key))

	rows, err := store.Scan(ctx, key)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "re-ensure must not drop rows")
}

func TestLedgerStore_KeysAreIndependent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewLedgerStore(pool)
	ctx := context.Background()

	trade := newTrade("alice", "BTC", 50000, 0.1, domain.SideBuy)
	for _, key := range []string{storage.GlobalLedgerKey, storage.CoinLedgerKey("BTC"), storage.PersonLedgerKey("alice")} {
		require.NoError(t, store.EnsureLedger(ctx, key))
		require.NoError(t, store.Append(ctx, key, trade))
	}

	for _, key := range []string{storage.GlobalLedgerKey, storage.CoinLedgerKey("BTC"), storage.PersonLedgerKey("alice")} {
		rows, err := store.Scan(ctx, key)
		require.NoError(t, err)
		assert.Len(t, rows, 1, "ledger %s", key)
	}
}
