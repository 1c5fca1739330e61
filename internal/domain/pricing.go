package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SymbolMapping binds a trading symbol to the identifier the primary
// market-data service uses for it. First-write-wins: once a symbol is
// mapped it is never overwritten.
type SymbolMapping struct {
	Symbol     string // uppercase ticker, e.g. "BTC"
	ExternalID string // e.g. "bitcoin"
	Name       string // human-readable name from the bulk listing
}

// PriceSnapshot is the latest observed price for a tracked coin.
// One logical row per coin, overwritten in place each refresh cycle.
// Nil prices mean the source was unavailable that cycle.
type PriceSnapshot struct {
	Coin           string
	PrimaryPrice   *decimal.Decimal
	SecondaryPrice *decimal.Decimal
	ObservedAt     time.Time
}

// PricePoint is one historical price observation, appended per refresh
// cycle for each successfully priced coin.
type PricePoint struct {
	Coin       string
	Price      decimal.Decimal
	Source     string // "primary" | "secondary"
	ObservedAt time.Time
}

// Price source constants
const (
	PriceSourcePrimary   = "primary"
	PriceSourceSecondary = "secondary"
)
