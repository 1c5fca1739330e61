// Package refresher runs the recurring price-reconciliation task: it
// discovers newly traded coins, tracks them, and refreshes all tracked
// prices on a fixed interval.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"coinledger/internal/catalogue"
	"coinledger/internal/domain"
	"coinledger/internal/marketdata"
	"coinledger/internal/storage"
)

// DefaultInterval between refresh cycles.
const DefaultInterval = 5 * time.Minute

// Runner executes the discover-then-refresh cycle. One Runner runs in a
// single goroutine, so a cycle can never overlap the previous one.
type Runner struct {
	ledgers        storage.LedgerStore
	snapshots      storage.SnapshotStore
	history        storage.PriceHistoryStore // optional
	catalogue      *catalogue.Catalogue
	oracle         *marketdata.Oracle
	interval       time.Duration
	secondaryVenue string
	logger         *logrus.Logger
	now            func() time.Time

	mu     sync.Mutex
	status Status
}

// Status is a diagnostic view of the refresh loop.
type Status struct {
	Running        bool              // a cycle is executing right now
	CyclesRun      int               // completed cycles since start
	LastCycleStart time.Time
	LastCycleEnd   time.Time
	TrackedCoins   int               // tracked set size after the last cycle
	CoinErrors     map[string]string // per-coin failure reason from the last cycle
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Ledgers        storage.LedgerStore
	Snapshots      storage.SnapshotStore
	History        storage.PriceHistoryStore // optional price-history sink
	Catalogue      *catalogue.Catalogue
	Oracle         *marketdata.Oracle
	Interval       time.Duration // default 5m
	SecondaryVenue string        // venue name gating secondary quotes, e.g. "binance"
	Logger         *logrus.Logger
	Now            func() time.Time
}

// NewRunner creates a new refresh runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		ledgers:        opts.Ledgers,
		snapshots:      opts.Snapshots,
		history:        opts.History,
		catalogue:      opts.Catalogue,
		oracle:         opts.Oracle,
		interval:       interval,
		secondaryVenue: strings.ToLower(opts.SecondaryVenue),
		logger:         logger,
		now:            now,
	}
}

// Run executes refresh cycles until the context is cancelled. Cycle
// failures are logged and never stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.WithField("interval", r.interval.String()).Info("price refresher started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.RunCycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			r.logger.WithError(err).Error("refresh cycle failed")
		}

		select {
		case <-ctx.Done():
			r.logger.Info("price refresher stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Status returns a snapshot of the loop's diagnostics.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.status
	st.CoinErrors = make(map[string]string, len(r.status.CoinErrors))
	for coin, reason := range r.status.CoinErrors {
		st.CoinErrors[coin] = reason
	}
	return st
}

// RunCycle executes one discover-then-refresh pass.
func (r *Runner) RunCycle(ctx context.Context) error {
	start := r.now()
	r.mu.Lock()
	r.status.Running = true
	r.status.LastCycleStart = start
	r.mu.Unlock()

	coinErrors := make(map[string]string)
	err := r.cycle(ctx, coinErrors)

	r.mu.Lock()
	r.status.Running = false
	r.status.LastCycleEnd = r.now()
	r.status.CyclesRun++
	r.status.CoinErrors = coinErrors
	if tracked, lerr := r.snapshots.List(ctx); lerr == nil {
		r.status.TrackedCoins = len(tracked)
	}
	r.mu.Unlock()

	return err
}

func (r *Runner) cycle(ctx context.Context, coinErrors map[string]string) error {
	if err := r.discover(ctx); err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	if err := r.refresh(ctx, coinErrors); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// discover diffs the set of coins ever traded against the tracked set and
// starts tracking any new ones. The tracked set only grows.
func (r *Runner) discover(ctx context.Context) error {
	trades, err := r.ledgers.Scan(ctx, storage.GlobalLedgerKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Nothing recorded yet
			return nil
		}
		return fmt.Errorf("scan global ledger: %w", err)
	}

	traded := make(map[string]struct{})
	for _, t := range trades {
		traded[t.Coin] = struct{}{}
	}

	tracked, err := r.snapshots.List(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	known := make(map[string]struct{}, len(tracked))
	for _, s := range tracked {
		known[s.Coin] = struct{}{}
	}

	for coin := range traded {
		if _, ok := known[coin]; ok {
			continue
		}
		snap := &domain.PriceSnapshot{Coin: coin, ObservedAt: r.now()}
		if err := r.snapshots.Upsert(ctx, snap); err != nil {
			return fmt.Errorf("track %s: %w", coin, err)
		}
		r.logger.WithField("coin", coin).Info("tracking newly traded coin")
	}

	return nil
}

// refresh overwrites every tracked coin's snapshot with freshly fetched
// prices. A failure on one coin never aborts the cycle: that coin is
// recorded as unpriced and retried next cycle.
func (r *Runner) refresh(ctx context.Context, coinErrors map[string]string) error {
	tracked, err := r.snapshots.List(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(tracked) == 0 {
		return nil
	}

	// One batch call for all resolvable coins
	ids := make([]string, 0, len(tracked))
	idByCoin := make(map[string]string, len(tracked))
	for _, snap := range tracked {
		id, ok := r.catalogue.Resolve(snap.Coin)
		if !ok {
			r.catalogue.RegisterIfMissing(ctx, snap.Coin)
			continue
		}
		ids = append(ids, id)
		idByCoin[snap.Coin] = id
	}

	primaries, err := r.oracle.PrimaryPrices(ctx, ids)
	if err != nil {
		// Whole batch unavailable this cycle; snapshots still get
		// overwritten below with no primary price.
		r.logger.WithError(err).Warn("primary price batch unavailable")
		primaries = map[string]decimal.Decimal{}
	}

	observedAt := r.now()
	var points []*domain.PricePoint

	for _, snap := range tracked {
		updated := &domain.PriceSnapshot{Coin: snap.Coin, ObservedAt: observedAt}

		id, mapped := idByCoin[snap.Coin]
		switch {
		case !mapped:
			coinErrors[snap.Coin] = "no symbol mapping"
		default:
			if price, ok := primaries[id]; ok {
				p := price
				updated.PrimaryPrice = &p
				points = append(points, &domain.PricePoint{
					Coin: snap.Coin, Price: p, Source: domain.PriceSourcePrimary, ObservedAt: observedAt,
				})
			} else {
				coinErrors[snap.Coin] = "primary price unavailable"
			}
		}

		if r.tradesOnSecondaryVenue(ctx, snap.Coin) {
			price, err := r.oracle.SecondaryPrice(ctx, snap.Coin)
			if err != nil {
				r.logger.WithField("coin", snap.Coin).WithError(err).Debug("secondary price unavailable")
			} else {
				p := price
				updated.SecondaryPrice = &p
				points = append(points, &domain.PricePoint{
					Coin: snap.Coin, Price: p, Source: domain.PriceSourceSecondary, ObservedAt: observedAt,
				})
			}
		}

		if err := r.snapshots.Upsert(ctx, updated); err != nil {
			coinErrors[snap.Coin] = err.Error()
			r.logger.WithField("coin", snap.Coin).WithError(err).Error("snapshot overwrite failed")
		}
	}

	if r.history != nil && len(points) > 0 {
		if err := r.history.InsertBulk(ctx, points); err != nil {
			r.logger.WithError(err).Error("price history append failed")
		}
	}

	return nil
}

// tradesOnSecondaryVenue reports whether the coin has at least one trade
// recorded against the configured secondary venue. Gates secondary quotes
// so a pair that may not exist there is never queried.
func (r *Runner) tradesOnSecondaryVenue(ctx context.Context, coin string) bool {
	if r.secondaryVenue == "" {
		return false
	}
	trades, err := r.ledgers.Scan(ctx, storage.CoinLedgerKey(coin))
	if err != nil {
		return false
	}
	for _, t := range trades {
		if strings.ToLower(t.Venue) == r.secondaryVenue {
			return true
		}
	}
	return false
}
