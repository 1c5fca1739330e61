package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a single recorded buy or sell.
// Rows are append-only: once written to a ledger they are never mutated.
type Trade struct {
	Timestamp time.Time       // server-assigned creation time
	Person    string          // normalized lowercase identifier
	Coin      string          // normalized uppercase symbol
	Price     decimal.Decimal // quote currency per unit of coin, > 0
	Quantity  decimal.Decimal // > 0
	Venue     string          // free-text exchange/source name
	Notional  decimal.Decimal // price * quantity, stored to avoid recomputation drift
	Side      string          // "BUY" | "SELL"
}

// Trade side constants
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// ValidSide reports whether s is a recognized trade side.
func ValidSide(s string) bool {
	return s == SideBuy || s == SideSell
}
