package backtest

import (
	"context"
	"fmt"
	"log"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/observability"
	"equity-pattern-lab/internal/regime"
	"equity-pattern-lab/internal/scorer"
	"equity-pattern-lab/internal/storage"
)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Config domain.BacktestConfig
	Scorer scorer.Scorer
	Filter *regime.Filter // optional

	// Optional persistence: when set, the runner writes both output streams
	// after a successful run.
	TradeRecordStore storage.TradeRecordStore
	DailyLogStore    storage.DailyLogStore

	// Optional instrumentation.
	Metrics  *observability.Metrics
	Progress ProgressFunc

	Logger *log.Logger
}

// Runner executes backtests and handles persistence and instrumentation
// around the pure engine.
type Runner struct {
	opts RunnerOptions
}

// NewRunner creates a backtest runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Runner{opts: opts}
}

// Run executes a backtest for one ticker and persists the outputs when
// stores are configured. Persistence failures are returned to the caller;
// the in-memory results are still valid at that point.
func (r *Runner) Run(ctx context.Context, ticker string, bars []domain.PriceBar) (*Results, error) {
	engine := NewEngine(r.opts.Config, r.opts.Scorer, r.opts.Filter, r.opts.Logger)
	if r.opts.Progress != nil {
		engine = engine.WithProgress(r.opts.Progress)
	}

	timer := r.opts.Metrics.StartRun()
	results, err := engine.Run(ctx, ticker, bars)
	if err != nil {
		return nil, err
	}
	timer.Done()

	r.opts.Metrics.ObserveRun(results.DaysEvaluated, len(results.Trades))

	if r.opts.TradeRecordStore != nil && len(results.Trades) > 0 {
		if err := r.opts.TradeRecordStore.InsertBulk(ctx, results.Trades); err != nil {
			return results, fmt.Errorf("persist trade records: %w", err)
		}
	}
	if r.opts.DailyLogStore != nil && len(results.DailyLogs) > 0 {
		if err := r.opts.DailyLogStore.InsertBulk(ctx, results.DailyLogs); err != nil {
			return results, fmt.Errorf("persist daily logs: %w", err)
		}
	}

	return results, nil
}
