package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coinledger/internal/domain"
)

func TestPriceHistoryStore_InsertAndGetByCoin(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []*domain.PricePoint{
		{Coin: "BTC", Price: decimal.NewFromInt(51000), Source: domain.PriceSourcePrimary, ObservedAt: base.Add(time.Minute)},
		{Coin: "ETH", Price: decimal.NewFromInt(3000), Source: domain.PriceSourcePrimary, ObservedAt: base},
		{Coin: "BTC", Price: decimal.NewFromInt(50000), Source: domain.PriceSourcePrimary, ObservedAt: base},
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByCoin(ctx, "BTC")
	if err != nil {
		t.Fatalf("GetByCoin failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 BTC points, got %d", len(got))
	}
	// Ordered by observation time ASC
	if !got[0].Price.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected earliest point first, got %v", got[0].Price)
	}
}

func TestPriceHistoryStore_GetByTimeRange(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.InsertBulk(ctx, []*domain.PricePoint{{
			Coin:       "BTC",
			Price:      decimal.NewFromInt(int64(50000 + i)),
			Source:     domain.PriceSourcePrimary,
			ObservedAt: base.Add(time.Duration(i) * time.Minute),
		}})
		if err != nil {
			t.Fatalf("InsertBulk failed: %v", err)
		}
	}

	start := base.Add(time.Minute).UnixMilli()
	end := base.Add(3 * time.Minute).UnixMilli()
	got, err := store.GetByTimeRange(ctx, "BTC", start, end)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 points in range (inclusive bounds), got %d", len(got))
	}
}

func TestPriceHistoryStore_EmptyBulk(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, nil); err != nil {
		t.Errorf("empty InsertBulk should be a no-op, got %v", err)
	}
}
