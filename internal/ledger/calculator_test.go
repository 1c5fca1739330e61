package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"coinledger/internal/storage"
	"coinledger/internal/storage/memory"
)

func record(t *testing.T, rec *Recorder, person, coin string, price, qty float64, side string) {
	t.Helper()
	_, err := rec.Record(context.Background(), person, coin, decimal.NewFromFloat(price), decimal.NewFromFloat(qty), "binance", side)
	if err != nil {
		t.Fatalf("Record(%s %s %v %v %s) failed: %v", person, coin, price, qty, side, err)
	}
}

func TestCalculator_BuySellScenario(t *testing.T) {
	store := memory.NewLedgerStore()
	rec := newTestRecorder(store)
	calc := NewCalculator(store)
	ctx := context.Background()

	record(t, rec, "alice", "BTC", 50000, 0.1, "BUY")
	record(t, rec, "alice", "BTC", 60000, 0.05, "SELL")

	pos, err := calc.Holdings(ctx, "BTC", "alice")
	if err != nil {
		t.Fatalf("Holdings failed: %v", err)
	}

	if !pos.SignedQuantity.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("signed quantity: expected 0.05, got %v", pos.SignedQuantity)
	}
	// SELL is ignored in cost basis
	if !pos.AverageCost.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("average cost: expected 50000, got %v", pos.AverageCost)
	}
	if !pos.Valuation.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("valuation: expected 2500, got %v", pos.Valuation)
	}
	if pos.TradeCount != 2 {
		t.Errorf("trade count: expected 2, got %d", pos.TradeCount)
	}
}

func TestCalculator_SellNeverMovesAverageCost(t *testing.T) {
	store := memory.NewLedgerStore()
	rec := newTestRecorder(store)
	calc := NewCalculator(store)
	ctx := context.Background()

	record(t, rec, "alice", "ETH", 3000, 2, "BUY")
	before, err := calc.AverageCost(ctx, "ETH", "")
	if err != nil {
		t.Fatalf("AverageCost failed: %v", err)
	}

	record(t, rec, "alice", "ETH", 9999, 1.5, "SELL")
	after, err := calc.AverageCost(ctx, "ETH", "")
	if err != nil {
		t.Fatalf("AverageCost failed: %v", err)
	}

	if !before.Equal(after) {
		t.Errorf("SELL changed average cost: %v -> %v", before, after)
	}
}

func TestCalculator_CrossLedgerConsistency(t *testing.T) {
	store := memory.NewLedgerStore()
	rec := newTestRecorder(store)
	calc := NewCalculator(store)
	ctx := context.Background()

	// Two people trading the same coin, plus unrelated noise
	record(t, rec, "alice", "BTC", 50000, 0.1, "BUY")
	record(t, rec, "bob", "BTC", 51000, 0.3, "BUY")
	record(t, rec, "bob", "BTC", 52000, 0.05, "SELL")
	record(t, rec, "alice", "ETH", 3000, 1, "BUY")

	coinWide, err := calc.Holdings(ctx, "BTC", "")
	if err != nil {
		t.Fatalf("coin-wide Holdings failed: %v", err)
	}

	total := decimal.Zero
	for _, person := range []string{"alice", "bob"} {
		pos, err := calc.Holdings(ctx, "BTC", person)
		if err != nil {
			t.Fatalf("Holdings for %s failed: %v", person, err)
		}
		total = total.Add(pos.SignedQuantity)
	}

	if !coinWide.SignedQuantity.Equal(total) {
		t.Errorf("coin ledger %v != sum of person ledgers %v", coinWide.SignedQuantity, total)
	}
}

func TestCalculator_NoDoubleCountingFromTripleWrite(t *testing.T) {
	store := memory.NewLedgerStore()
	rec := newTestRecorder(store)
	calc := NewCalculator(store)
	ctx := context.Background()

	record(t, rec, "alice", "BTC", 50000, 0.1, "BUY")

	pos, err := calc.Holdings(ctx, "BTC", "")
	if err != nil {
		t.Fatalf("Holdings failed: %v", err)
	}
	if !pos.SignedQuantity.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("expected 0.1 exactly once, got %v", pos.SignedQuantity)
	}
	if pos.TradeCount != 1 {
		t.Errorf("expected 1 trade, got %d", pos.TradeCount)
	}
}

func TestCalculator_UnknownScopeIsNotFound(t *testing.T) {
	calc := NewCalculator(memory.NewLedgerStore())

	_, err := calc.Holdings(context.Background(), "BTC", "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = calc.AverageCost(context.Background(), "BTC", "nobody")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCalculator_SellOnlyScopeReportsNoBuys(t *testing.T) {
	store := memory.NewLedgerStore()
	rec := newTestRecorder(store)
	calc := NewCalculator(store)
	ctx := context.Background()

	record(t, rec, "alice", "DOGE", 0.5, 100, "SELL")

	_, err := calc.AverageCost(ctx, "DOGE", "")
	var noBuys *NoBuysError
	if !errors.As(err, &noBuys) {
		t.Fatalf("expected NoBuysError, got %v", err)
	}

	pos, err := calc.Holdings(ctx, "DOGE", "")
	if err != nil {
		t.Fatalf("Holdings failed: %v", err)
	}
	if pos.HasBuys {
		t.Error("expected HasBuys false")
	}
	if pos.ValuationNote == "" {
		t.Error("expected a valuation omission reason")
	}
	if !pos.SignedQuantity.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("expected signed quantity -100, got %v", pos.SignedQuantity)
	}
}

func TestCalculator_PersonScopeFiltersByCoin(t *testing.T) {
	store := memory.NewLedgerStore()
	rec := newTestRecorder(store)
	calc := NewCalculator(store)
	ctx := context.Background()

	record(t, rec, "alice", "BTC", 50000, 0.1, "BUY")
	record(t, rec, "alice", "ETH", 3000, 2, "BUY")

	pos, err := calc.Holdings(ctx, "BTC", "alice")
	if err != nil {
		t.Fatalf("Holdings failed: %v", err)
	}
	if pos.TradeCount != 1 {
		t.Errorf("expected ETH rows filtered out, got %d trades", pos.TradeCount)
	}
	if !pos.SignedQuantity.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("expected 0.1, got %v", pos.SignedQuantity)
	}
}
