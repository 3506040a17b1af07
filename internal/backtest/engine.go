// Package backtest implements the walk-forward evaluation loop: for each
// eligible day it assembles the lookback window, consults the regime filter,
// invokes the pattern scorer, and on a qualifying score resolves the trade
// outcome over a fixed forward horizon.
package backtest

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/idhash"
	"equity-pattern-lab/internal/indicator"
	"equity-pattern-lab/internal/regime"
	"equity-pattern-lab/internal/risk"
	"equity-pattern-lab/internal/scorer"
)

// Progress describes one completed evaluation day, for progress reporting.
type Progress struct {
	Ticker     string
	Date       time.Time
	Day        int // index within the evaluable range, 0-based
	TotalDays  int
	FinalScore float64
	Triggered  bool
}

// ProgressFunc receives per-day progress events. May be nil.
type ProgressFunc func(Progress)

// Results holds the two output streams of a backtest run: per-trade outcome
// records and the per-day diagnostic trail. Both are append-only and never
// revised retroactively.
type Results struct {
	Ticker     string
	StrategyID string

	DaysEvaluated int
	DaysBlocked   int // days suppressed by the regime filter
	DaysDegraded  int // days scored zero due to a soft per-day failure

	Trades    []*domain.TradeRecord
	DailyLogs []*domain.DailyLogRecord
}

// Engine is the walk-forward driver. Single-threaded and deterministic for
// the deterministic scorer: each day depends only on already-computed
// history and the append-only outputs.
type Engine struct {
	cfg      domain.BacktestConfig
	scorer   scorer.Scorer
	filter   *regime.Filter // nil means no regime filtering
	logger   *log.Logger
	progress ProgressFunc
}

// NewEngine creates a walk-forward engine. filter may be nil (fail-open:
// evaluation proceeds without regime gating). logger must not be nil.
func NewEngine(cfg domain.BacktestConfig, sc scorer.Scorer, filter *regime.Filter, logger *log.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		scorer: sc,
		filter: filter,
		logger: logger,
	}
}

// WithProgress sets a per-day progress hook.
func (e *Engine) WithProgress(fn ProgressFunc) *Engine {
	e.progress = fn
	return e
}

// Run replays the series chronologically and returns both output streams.
// A series too short for a full lookback window, forward horizon, and
// indicator warm-up yields empty results, not an error. Only context
// cancellation aborts a run.
func (e *Engine) Run(ctx context.Context, ticker string, bars []domain.PriceBar) (*Results, error) {
	results := &Results{
		Ticker:     ticker,
		StrategyID: e.scorer.ID(),
		Trades:     make([]*domain.TradeRecord, 0),
		DailyLogs:  make([]*domain.DailyLogRecord, 0),
	}

	warmup := e.cfg.Indicators.FastSMAPeriod
	if len(bars) < e.cfg.LookbackDays+e.cfg.ForwardHorizon+warmup {
		return results, nil
	}

	enriched := indicator.Enrich(bars, e.cfg.Indicators)
	if len(enriched) < e.cfg.LookbackDays+e.cfg.ForwardHorizon {
		return results, nil
	}

	// Evaluable range [lookback, len-horizon): both bounds are hard
	// cutoffs. Days inside the horizon of the series end are excluded
	// entirely, never partially evaluated.
	first := e.cfg.LookbackDays
	last := len(enriched) - e.cfg.ForwardHorizon
	totalDays := last - first

	for i := first; i < last; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest cancelled: %w", err)
		}

		day := enriched[i]

		decision := e.filter.Lookup(day.Date)
		switch decision.Status {
		case regime.StatusBlocked:
			// Skip the day entirely: no daily log, no scoring.
			results.DaysBlocked++
			continue
		case regime.StatusUnknown:
			e.logger.Printf("regime data missing for %s, filter skipped for this day",
				day.Date.Format("2006-01-02"))
		}

		window := enriched[i-e.cfg.LookbackDays : i]

		input := &scorer.Input{
			Window:       window,
			MarketWindow: e.marketWindow(window),
			CurrentPrice: day.Close,
			SMAFast:      day.SMAFast,
			ATR:          day.ATR,
		}

		score, err := e.scorer.Score(ctx, input)
		if err != nil {
			// Soft per-day failure: score neutral, keep advancing.
			e.logger.Printf("scoring failed for %s: %v", day.Date.Format("2006-01-02"), err)
			score = domain.ZeroScore(fmt.Sprintf("SCORER_ERROR: %v", err))
			results.DaysDegraded++
		}

		results.DaysEvaluated++
		results.DailyLogs = append(results.DailyLogs, &domain.DailyLogRecord{
			Ticker:  ticker,
			Date:    day.Date,
			Price:   day.Close,
			SMAFast: day.SMAFast,
			ATR:     day.ATR,
			Score:   *score,
		})

		triggered := score.FinalScore >= e.cfg.ScoreThreshold
		if triggered {
			trade := e.resolveTrade(ticker, enriched, i, score)
			results.Trades = append(results.Trades, trade)
		}

		if e.progress != nil {
			e.progress(Progress{
				Ticker:     ticker,
				Date:       day.Date,
				Day:        i - first,
				TotalDays:  totalDays,
				FinalScore: score.FinalScore,
				Triggered:  triggered,
			})
		}
	}

	return results, nil
}

// marketWindow assembles the regime points parallel to the stock window.
func (e *Engine) marketWindow(window []domain.EnrichedBar) []domain.MarketRegimePoint {
	if e.filter == nil {
		return nil
	}
	dates := make([]time.Time, len(window))
	for i, b := range window {
		dates[i] = b.Date
	}
	return e.filter.Window(dates)
}

// resolveTrade applies the risk model at entry and scans the forward window
// for the first-touch outcome. Terminal immediately: the record is never
// revised after creation.
func (e *Engine) resolveTrade(ticker string, enriched []domain.EnrichedBar, i int, score *domain.ScoreResult) *domain.TradeRecord {
	entry := enriched[i]
	params := risk.Compute(entry.Close, entry.ATR, e.cfg.Risk)

	forward := enriched[i+1 : i+1+e.cfg.ForwardHorizon]
	outcome := resolveOutcome(forward, params)

	finalClose := enriched[i+e.cfg.ForwardHorizon].Close
	forwardReturn := round2((finalClose - entry.Close) / entry.Close * 100)

	return &domain.TradeRecord{
		TradeID:          idhash.ComputeTradeID(ticker, e.scorer.ID(), entry.Date),
		Ticker:           ticker,
		StrategyID:       e.scorer.ID(),
		EntryDate:        entry.Date,
		EntryPrice:       round2(entry.Close),
		Score:            *score,
		StopLoss:         params.StopLoss,
		TakeProfit:       params.TakeProfit,
		Outcome:          outcome,
		ForwardReturnPct: forwardReturn,
	}
}

// resolveOutcome scans the forward window in date order and declares the
// first day on which either level is touched. If both trigger on the same
// day, the stop-loss takes precedence (conservative bias).
func resolveOutcome(forward []domain.EnrichedBar, params domain.RiskParameters) string {
	for _, bar := range forward {
		if bar.Low <= params.StopLoss {
			return domain.OutcomeStopLossHit
		}
		if bar.High >= params.TakeProfit {
			return domain.OutcomeTakeProfitHit
		}
	}
	return domain.OutcomeHoldToHorizon
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
