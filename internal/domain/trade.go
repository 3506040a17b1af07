package domain

import "time"

// RiskParameters holds ATR-derived stop-loss and take-profit price levels.
// When ATR <= 0 both collapse to the entry price: a sentinel for "undefined
// risk", never a real stop/target.
type RiskParameters struct {
	StopLoss   float64
	TakeProfit float64
}

// TradeRecord represents one simulated trade. Created exactly once per
// qualifying day and never mutated; the outcome is resolved synchronously
// within the same evaluation pass over a fixed forward horizon.
type TradeRecord struct {
	TradeID    string // deterministic hash, see idhash
	Ticker     string
	StrategyID string // scorer identifier (includes parameters)

	EntryDate  time.Time
	EntryPrice float64

	// Score snapshot at entry
	Score ScoreResult

	// Risk levels
	StopLoss   float64
	TakeProfit float64

	// Outcome
	Outcome          string  // STOP_LOSS_HIT | TAKE_PROFIT_HIT | HOLD_TO_HORIZON
	ForwardReturnPct float64 // close exactly ForwardHorizon bars after entry vs entry
}

// Trade outcome labels.
const (
	OutcomeStopLossHit   = "STOP_LOSS_HIT"
	OutcomeTakeProfitHit = "TAKE_PROFIT_HIT"
	OutcomeHoldToHorizon = "HOLD_TO_HORIZON"
)

// DailyLogRecord is the per-day diagnostic trail: emitted for every
// evaluable day whether or not a trade triggered. Downstream signal-quality
// analysis joins trades to these rows by date.
type DailyLogRecord struct {
	Ticker  string
	Date    time.Time
	Price   float64
	SMAFast float64
	ATR     float64
	Score   ScoreResult
}
