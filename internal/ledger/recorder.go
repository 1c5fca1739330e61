// Package ledger is the trade ledger and valuation core: recording trades
// into keyed append-only logs and deriving positions from them.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"coinledger/internal/catalogue"
	"coinledger/internal/domain"
	"coinledger/internal/storage"
)

// Recorder validates trade intents and appends them to the global, coin
// and person ledgers.
type Recorder struct {
	store     storage.LedgerStore
	catalogue *catalogue.Catalogue
	logger    *logrus.Logger
	now       func() time.Time
}

// RecorderOptions contains configuration for creating a Recorder.
type RecorderOptions struct {
	Store     storage.LedgerStore
	Catalogue *catalogue.Catalogue // optional: unmapped-symbol notification
	Logger    *logrus.Logger
	Now       func() time.Time // defaults to time.Now
}

// NewRecorder creates a new Recorder.
func NewRecorder(opts RecorderOptions) *Recorder {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		store:     opts.Store,
		catalogue: opts.Catalogue,
		logger:    logger,
		now:       now,
	}
}

// Record validates a trade intent, timestamps it and appends it to the
// three ledgers in fixed order: global, then coin, then person. The
// appends are independent remote calls with no shared transaction; on
// partial failure the global ledger stays a superset of the coin and
// person copies, which reconciliation tooling relies on. Returns the
// stored trade including its computed notional.
func (r *Recorder) Record(ctx context.Context, person, coin string, price, quantity decimal.Decimal, venue, side string) (*domain.Trade, error) {
	person = strings.ToLower(strings.TrimSpace(person))
	coin = strings.ToUpper(strings.TrimSpace(coin))
	side = strings.ToUpper(strings.TrimSpace(side))
	venue = strings.TrimSpace(venue)

	if person == "" {
		return nil, &ValidationError{Field: "person", Reason: "must not be empty"}
	}
	if coin == "" {
		return nil, &ValidationError{Field: "coin", Reason: "must not be empty"}
	}
	if !price.IsPositive() {
		return nil, &ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	if !quantity.IsPositive() {
		return nil, &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if !domain.ValidSide(side) {
		return nil, &ValidationError{Field: "side", Reason: "must be BUY or SELL"}
	}

	trade := &domain.Trade{
		Timestamp: r.now(),
		Person:    person,
		Coin:      coin,
		Price:     price,
		Quantity:  quantity,
		Venue:     venue,
		Notional:  price.Mul(quantity),
		Side:      side,
	}

	keys := []string{
		storage.GlobalLedgerKey,
		storage.CoinLedgerKey(coin),
		storage.PersonLedgerKey(person),
	}
	for _, key := range keys {
		if err := r.store.EnsureLedger(ctx, key); err != nil {
			return nil, &StoreError{Op: "ensure", Key: key, Err: err}
		}
		if err := r.store.Append(ctx, key, trade); err != nil {
			return nil, &StoreError{Op: "append", Key: key, Err: err}
		}
	}

	if r.catalogue != nil {
		r.catalogue.RegisterIfMissing(ctx, coin)
	}

	r.logger.WithFields(logrus.Fields{
		"person":   person,
		"coin":     coin,
		"side":     side,
		"quantity": quantity.String(),
		"notional": trade.Notional.String(),
		"venue":    venue,
	}).Info("trade recorded")

	return trade, nil
}
