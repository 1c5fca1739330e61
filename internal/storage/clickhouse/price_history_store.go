package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"coinledger/internal/domain"
	"coinledger/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk appends multiple points.
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (coin, price, source, observed_ms)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if p == nil || p.Coin == "" {
			return storage.ErrInvalidInput
		}
		if err := batch.Append(p.Coin, p.Price, p.Source, uint64(p.ObservedAt.UnixMilli())); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCoin retrieves all points for a coin, ordered by observation time ASC.
func (s *PriceHistoryStore) GetByCoin(ctx context.Context, coin string) ([]*domain.PricePoint, error) {
	query := `
		SELECT coin, price, source, observed_ms
		FROM price_history
		WHERE coin = ?
		ORDER BY observed_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, coin)
	if err != nil {
		return nil, fmt.Errorf("query by coin: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetByTimeRange retrieves points for a coin within [start, end] (inclusive),
// bounds in Unix milliseconds.
func (s *PriceHistoryStore) GetByTimeRange(ctx context.Context, coin string, start, end int64) ([]*domain.PricePoint, error) {
	query := `
		SELECT coin, price, source, observed_ms
		FROM price_history
		WHERE coin = ? AND observed_ms >= ? AND observed_ms <= ?
		ORDER BY observed_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, coin, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

func scanPricePoints(rows driver.Rows) ([]*domain.PricePoint, error) {
	var result []*domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		var price decimal.Decimal
		var observedMs uint64
		if err := rows.Scan(&p.Coin, &price, &p.Source, &observedMs); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		p.Price = price
		p.ObservedAt = time.UnixMilli(int64(observedMs)).UTC()
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
