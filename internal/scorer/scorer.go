// Package scorer defines the pattern-scoring capability: given a lookback
// window, produce a bounded composite score plus a human-readable rationale.
// The deterministic rule-based scorer and the LLM-backed scorer are
// interchangeable implementations; the backtest loop depends only on the
// interface.
package scorer

import (
	"context"

	"equity-pattern-lab/internal/domain"
)

// Scorer produces a composite pattern score for one evaluation day.
type Scorer interface {
	// Score evaluates a lookback window. Degraded conditions (insufficient
	// data, failed external calls) return a zero ScoreResult with an
	// explanatory description, not an error: a single day's scoring failure
	// must never abort the walk-forward loop.
	Score(ctx context.Context, input *Input) (*domain.ScoreResult, error)

	// ID returns the scorer identifier (includes parameters).
	ID() string
}

// Input holds all data needed for one scoring call.
type Input struct {
	// Window is the trailing lookback bars ending the prior day.
	Window []domain.EnrichedBar

	// MarketWindow is the reference index series parallel to Window.
	// Nil when no market data is available.
	MarketWindow []domain.MarketRegimePoint

	// Current day's values, passed separately from the window.
	CurrentPrice float64
	SMAFast      float64
	ATR          float64
}
