// Package risk maps (entry price, ATR) to stop-loss/take-profit levels.
package risk

import (
	"math"

	"equity-pattern-lab/internal/domain"
)

// Compute derives stop-loss and take-profit prices from the entry price and
// ATR using the configured multiples. Pure and total: never fails for any
// finite numeric input.
//
// ATR <= 0 collapses both levels to the entry price — a sentinel for
// "undefined risk" that callers must not treat as a real stop/target.
func Compute(entryPrice, atr float64, cfg domain.RiskConfig) domain.RiskParameters {
	if atr <= 0 {
		return domain.RiskParameters{
			StopLoss:   entryPrice,
			TakeProfit: entryPrice,
		}
	}

	return domain.RiskParameters{
		StopLoss:   round2(entryPrice - cfg.StopATRMultiple*atr),
		TakeProfit: round2(entryPrice + cfg.TargetATRMultiple*atr),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
