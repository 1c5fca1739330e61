package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"coinledger/internal/domain"
	"coinledger/internal/storage"
)

// Division precision for average cost. Matches shopspring's default but
// pinned here so results don't shift with library defaults.
const avgCostPrecision = 16

// Calculator derives positions from ledger rows on demand.
type Calculator struct {
	store storage.LedgerStore
}

// NewCalculator creates a new Calculator.
func NewCalculator(store storage.LedgerStore) *Calculator {
	return &Calculator{store: store}
}

// Holdings computes the position for a coin, optionally scoped to one
// person. A person scope reads the person's ledger and filters by coin
// client-side; a coin-only scope reads the coin ledger, which is already
// filtered by construction. Returns storage.ErrNotFound when the resolved
// ledger was never created.
func (c *Calculator) Holdings(ctx context.Context, coin, person string) (*domain.Position, error) {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	person = strings.ToLower(strings.TrimSpace(person))
	if coin == "" {
		return nil, &ValidationError{Field: "coin", Reason: "must not be empty"}
	}

	key := storage.CoinLedgerKey(coin)
	if person != "" {
		key = storage.PersonLedgerKey(person)
	}

	rows, err := c.store.Scan(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", key, err)
	}

	pos := &domain.Position{
		Coin:           coin,
		Person:         person,
		SignedQuantity: decimal.Zero,
		BuyQuantity:    decimal.Zero,
		BuyNotional:    decimal.Zero,
	}

	for _, t := range rows {
		if t.Coin != coin {
			continue
		}
		pos.TradeCount++
		switch t.Side {
		case domain.SideBuy:
			pos.SignedQuantity = pos.SignedQuantity.Add(t.Quantity)
			pos.BuyQuantity = pos.BuyQuantity.Add(t.Quantity)
			pos.BuyNotional = pos.BuyNotional.Add(t.Notional)
		case domain.SideSell:
			pos.SignedQuantity = pos.SignedQuantity.Sub(t.Quantity)
		}
	}

	if pos.BuyQuantity.IsPositive() {
		pos.HasBuys = true
		pos.AverageCost = pos.BuyNotional.DivRound(pos.BuyQuantity, avgCostPrecision)
		pos.Valuation = pos.SignedQuantity.Mul(pos.AverageCost)
	} else {
		pos.ValuationNote = "no buys recorded, average cost undefined"
	}

	return pos, nil
}

// AverageCost returns the cost basis for a coin, optionally scoped to one
// person: total BUY notional divided by total BUY quantity. SELL rows
// never enter the computation. Returns NoBuysError when the BUY-quantity
// sum is zero.
func (c *Calculator) AverageCost(ctx context.Context, coin, person string) (decimal.Decimal, error) {
	pos, err := c.Holdings(ctx, coin, person)
	if err != nil {
		return decimal.Zero, err
	}
	if !pos.HasBuys {
		return decimal.Zero, &NoBuysError{Coin: pos.Coin, Person: pos.Person}
	}
	return pos.AverageCost, nil
}
