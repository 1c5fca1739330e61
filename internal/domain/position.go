package domain

import "github.com/shopspring/decimal"

// Position is the derived holding for a (coin) or (person, coin) scope.
// Never persisted; computed on demand from ledger rows.
type Position struct {
	Coin   string
	Person string // empty for coin-wide scope

	SignedQuantity decimal.Decimal // sum of BUY quantities minus sum of SELL quantities
	BuyQuantity    decimal.Decimal // sum of BUY quantities only
	BuyNotional    decimal.Decimal // sum of BUY notionals only

	// AverageCost is BuyNotional / BuyQuantity. Defined only when HasBuys.
	// SELL rows never enter cost basis.
	AverageCost decimal.Decimal
	HasBuys     bool

	// Valuation is SignedQuantity * AverageCost when HasBuys; otherwise zero
	// and ValuationNote explains the omission.
	Valuation     decimal.Decimal
	ValuationNote string

	TradeCount int
}
