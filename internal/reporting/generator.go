package reporting

import (
	"context"
	"fmt"
	"time"

	"equity-pattern-lab/internal/metrics"
	"equity-pattern-lab/internal/storage"
)

// Generator produces run summaries from stored output streams.
type Generator struct {
	tradeStore    storage.TradeRecordStore
	dailyLogStore storage.DailyLogStore
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator(tradeStore storage.TradeRecordStore, dailyLogStore storage.DailyLogStore) *Generator {
	return &Generator{
		tradeStore:    tradeStore,
		dailyLogStore: dailyLogStore,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for one ticker from the stored streams.
func (g *Generator) Generate(ctx context.Context, ticker string) (*Report, error) {
	trades, err := g.tradeStore.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	logs, err := g.dailyLogStore.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load daily logs: %w", err)
	}

	strategyID := ""
	if len(trades) > 0 {
		strategyID = trades[0].StrategyID
	}

	return &Report{
		GeneratedAt:   g.now(),
		Ticker:        ticker,
		StrategyID:    strategyID,
		TradeCount:    len(trades),
		DailyLogCount: len(logs),
		Performance:   metrics.ComputePerformance(trades),
		SignalQuality: metrics.AnalyzeSignalQuality(trades, logs),
		Trades:        trades,
	}, nil
}
