package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/storage/memory"
)

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	tradeStore := memory.NewTradeRecordStore()
	dailyLogStore := memory.NewDailyLogStore()

	trades := []*domain.TradeRecord{
		{
			TradeID: "t1", Ticker: "AAPL", StrategyID: "PATTERN_RELATIVE_STRENGTH_10d",
			EntryDate: day(0), EntryPrice: 100,
			Outcome: domain.OutcomeTakeProfitHit, ForwardReturnPct: 10,
		},
		{
			TradeID: "t2", Ticker: "AAPL", StrategyID: "PATTERN_RELATIVE_STRENGTH_10d",
			EntryDate: day(3), EntryPrice: 105,
			Outcome: domain.OutcomeStopLossHit, ForwardReturnPct: -5,
		},
	}
	require.NoError(t, tradeStore.InsertBulk(ctx, trades))

	logs := []*domain.DailyLogRecord{
		{Ticker: "AAPL", Date: day(0), Price: 100, ATR: 2},
		{Ticker: "AAPL", Date: day(3), Price: 105, ATR: 2},
	}
	require.NoError(t, dailyLogStore.InsertBulk(ctx, logs))

	fixed := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(tradeStore, dailyLogStore).
		WithClock(func() time.Time { return fixed })

	report, err := g.Generate(ctx, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, fixed, report.GeneratedAt)
	assert.Equal(t, "AAPL", report.Ticker)
	assert.Equal(t, "PATTERN_RELATIVE_STRENGTH_10d", report.StrategyID)
	assert.Equal(t, 2, report.TradeCount)
	assert.Equal(t, 2, report.DailyLogCount)
	assert.Equal(t, 50.0, report.Performance.WinRate)
	assert.Equal(t, 2.0, report.Performance.ProfitFactor)
	assert.Len(t, report.SignalQuality, 2)
}

func TestGenerator_EmptyTicker(t *testing.T) {
	g := NewGenerator(memory.NewTradeRecordStore(), memory.NewDailyLogStore())

	report, err := g.Generate(context.Background(), "MSFT")
	require.NoError(t, err)

	assert.Zero(t, report.TradeCount)
	assert.Empty(t, report.StrategyID)
	assert.Equal(t, 0.0, report.Performance.ProfitFactor)
	assert.Nil(t, report.SignalQuality)
}
