package backtest

import (
	"context"
	"errors"
	"testing"

	"equity-pattern-lab/internal/observability"
	"equity-pattern-lab/internal/storage"
	"equity-pattern-lab/internal/storage/memory"
)

func TestRunner_PersistsBothStreams(t *testing.T) {
	tradeStore := memory.NewTradeRecordStore()
	dailyLogStore := memory.NewDailyLogStore()

	runner := NewRunner(RunnerOptions{
		Config:           testEngineConfig(),
		Scorer:           triggerScorer(10),
		TradeRecordStore: tradeStore,
		DailyLogStore:    dailyLogStore,
		Metrics:          observability.New(),
		Logger:           discardLogger(),
	})

	results, err := runner.Run(context.Background(), "TEST", flatBars(11))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(results.Trades))
	}

	ctx := context.Background()
	trades, err := tradeStore.GetByTicker(ctx, "TEST")
	if err != nil {
		t.Fatalf("GetByTicker failed: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("expected 1 persisted trade, got %d", len(trades))
	}
	if trades[0].TradeID != results.Trades[0].TradeID {
		t.Errorf("persisted trade id %q != result %q", trades[0].TradeID, results.Trades[0].TradeID)
	}

	logs, err := dailyLogStore.GetByTicker(ctx, "TEST")
	if err != nil {
		t.Fatalf("GetByTicker failed: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("expected 1 persisted daily log, got %d", len(logs))
	}
}

func TestRunner_DuplicatePersistSurfacesError(t *testing.T) {
	tradeStore := memory.NewTradeRecordStore()

	opts := RunnerOptions{
		Config:           testEngineConfig(),
		Scorer:           triggerScorer(10),
		TradeRecordStore: tradeStore,
		Logger:           discardLogger(),
	}

	bars := flatBars(11)
	if _, err := NewRunner(opts).Run(context.Background(), "TEST", bars); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Trade IDs are deterministic, so a second identical run collides.
	results, err := NewRunner(opts).Run(context.Background(), "TEST", bars)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	// In-memory results remain usable despite the persistence failure.
	if results == nil || len(results.Trades) != 1 {
		t.Error("results must be returned alongside the persistence error")
	}
}

func TestRunner_NoStoresConfigured(t *testing.T) {
	runner := NewRunner(RunnerOptions{
		Config: testEngineConfig(),
		Scorer: triggerScorer(10),
		Logger: discardLogger(),
	})

	results, err := runner.Run(context.Background(), "TEST", flatBars(11))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results.Trades) != 1 {
		t.Errorf("expected 1 trade, got %d", len(results.Trades))
	}
}
