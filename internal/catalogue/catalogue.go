// Package catalogue maps trading symbols to the identifiers the primary
// market-data service uses for them.
package catalogue

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"coinledger/internal/domain"
)

// Notifier receives operator alerts. Called at most once per unmapped
// symbol for the lifetime of the catalogue.
type Notifier interface {
	NotifyUnmapped(ctx context.Context, symbol string)
}

// LogNotifier writes operator alerts to the log.
type LogNotifier struct {
	Logger *logrus.Logger
}

// NotifyUnmapped logs the unmapped symbol at warning level.
func (n *LogNotifier) NotifyUnmapped(_ context.Context, symbol string) {
	logger := n.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithField("symbol", symbol).Warn("symbol has no market-data mapping, add one manually")
}

// Catalogue is the in-memory symbol table. Mappings are first-write-wins:
// once a symbol is bound to an external id it is never overwritten, not
// even by a later bulk load.
type Catalogue struct {
	mu       sync.RWMutex
	mappings map[string]domain.SymbolMapping
	notified map[string]struct{}
	notifier Notifier
}

// New creates an empty catalogue. notifier may be nil, in which case
// unmapped symbols are silently skipped for notification.
func New(notifier Notifier) *Catalogue {
	return &Catalogue{
		mappings: make(map[string]domain.SymbolMapping),
		notified: make(map[string]struct{}),
		notifier: notifier,
	}
}

// Resolve returns the external id for a symbol, or false when unmapped.
func (c *Catalogue) Resolve(symbol string) (string, bool) {
	symbol = normalize(symbol)

	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.mappings[symbol]
	if !ok {
		return "", false
	}
	return m.ExternalID, true
}

// BulkLoad merges a source listing into the table. Existing mappings are
// kept untouched; within the listing the first occurrence of a symbol
// wins. Returns the number of newly added mappings. Idempotent.
func (c *Catalogue) BulkLoad(listing []domain.SymbolMapping) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, m := range listing {
		symbol := normalize(m.Symbol)
		if symbol == "" || m.ExternalID == "" {
			continue
		}
		if _, exists := c.mappings[symbol]; exists {
			continue
		}
		m.Symbol = symbol
		c.mappings[symbol] = m
		added++
	}
	return added
}

// Register adds a single mapping, typically by operator action. Returns
// false without overwriting when the symbol is already mapped.
func (c *Catalogue) Register(symbol, externalID string) bool {
	symbol = normalize(symbol)
	if symbol == "" || externalID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.mappings[symbol]; exists {
		return false
	}
	c.mappings[symbol] = domain.SymbolMapping{Symbol: symbol, ExternalID: externalID}
	return true
}

// RegisterIfMissing notifies the operator the first time an unmapped
// symbol is encountered. Trades for the symbol still record; pricing
// waits until an operator adds the mapping.
func (c *Catalogue) RegisterIfMissing(ctx context.Context, symbol string) {
	symbol = normalize(symbol)

	c.mu.Lock()
	if _, mapped := c.mappings[symbol]; mapped {
		c.mu.Unlock()
		return
	}
	if _, seen := c.notified[symbol]; seen {
		c.mu.Unlock()
		return
	}
	c.notified[symbol] = struct{}{}
	notifier := c.notifier
	c.mu.Unlock()

	if notifier != nil {
		notifier.NotifyUnmapped(ctx, symbol)
	}
}

// Len returns the number of mapped symbols.
func (c *Catalogue) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mappings)
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
