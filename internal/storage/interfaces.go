// Package storage defines the persistence contracts for backtest inputs and
// outputs. Implementations: memory (default), postgres (trade records),
// clickhouse (price bars and daily logs).
package storage

import (
	"context"
	"time"

	"equity-pattern-lab/internal/domain"
)

// PriceBarStore provides access to raw OHLCV history.
type PriceBarStore interface {
	// InsertBulk adds multiple bars for a ticker. Fails the entire batch on
	// a duplicate (ticker, date).
	InsertBulk(ctx context.Context, ticker string, bars []domain.PriceBar) error

	// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]domain.PriceBar, error)

	// GetByDateRange retrieves bars for a ticker within [from, to] (inclusive).
	GetByDateRange(ctx context.Context, ticker string, from, to time.Time) ([]domain.PriceBar, error)
}

// TradeRecordStore provides access to simulated trade records.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByTicker retrieves all trades for a ticker, ordered by entry date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.TradeRecord, error)
}

// DailyLogStore provides access to the per-day diagnostic trail.
type DailyLogStore interface {
	// InsertBulk adds multiple records. Fails entire batch on a duplicate
	// (ticker, date, strategy run).
	InsertBulk(ctx context.Context, logs []*domain.DailyLogRecord) error

	// GetByTicker retrieves all records for a ticker, ordered by date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]*domain.DailyLogRecord, error)
}
