// Package marketdata combines external price sources into a single oracle.
package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"coinledger/internal/domain"
)

// ErrPriceUnavailable means a source could not produce a price this
// attempt. It is a valid terminal state for a refresh cycle, not a fault:
// callers record the coin as unpriced and try again next cycle.
var ErrPriceUnavailable = errors.New("price unavailable")

// PrimarySource lists symbols and quotes batches of external ids in USD.
type PrimarySource interface {
	ListCoins(ctx context.Context) ([]domain.SymbolMapping, error)
	SimplePrice(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
}

// SecondarySource quotes a single symbol's top-of-book price.
type SecondarySource interface {
	BestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Oracle answers price questions from a primary source with an optional
// secondary exchange quote. Transport failures never escape: exhausted
// retries surface as ErrPriceUnavailable.
type Oracle struct {
	primary   PrimarySource
	secondary SecondarySource
}

// NewOracle creates an Oracle. secondary may be nil, in which case
// SecondaryPrice always reports unavailable.
func NewOracle(primary PrimarySource, secondary SecondarySource) *Oracle {
	return &Oracle{primary: primary, secondary: secondary}
}

// PrimaryPrice returns the current USD price for an external id.
func (o *Oracle) PrimaryPrice(ctx context.Context, externalID string) (decimal.Decimal, error) {
	prices, err := o.primary.SimplePrice(ctx, []string{externalID})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, externalID, err)
	}
	price, ok := prices[externalID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s: id not in response", ErrPriceUnavailable, externalID)
	}
	return price, nil
}

// PrimaryPrices returns current USD prices for a batch of external ids.
// Missing ids are simply absent from the result.
func (o *Oracle) PrimaryPrices(ctx context.Context, externalIDs []string) (map[string]decimal.Decimal, error) {
	prices, err := o.primary.SimplePrice(ctx, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	return prices, nil
}

// SecondaryPrice returns the secondary exchange's top-of-book price for a
// symbol. Callers should only ask for symbols known to trade there.
func (o *Oracle) SecondaryPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if o.secondary == nil {
		return decimal.Zero, fmt.Errorf("%w: no secondary source configured", ErrPriceUnavailable)
	}
	price, err := o.secondary.BestPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, symbol, err)
	}
	return price, nil
}
