// Package metrics reduces backtest outputs into performance and
// signal-quality summaries. All functions are pure over the two tabular
// output streams.
package metrics

import (
	"encoding/json"
	"math"

	"equity-pattern-lab/internal/domain"
)

// Performance holds trade-set level metrics.
type Performance struct {
	TotalTrades int
	// WinRate is the percentage of trades with positive forward return,
	// rounded to 2 decimal places.
	WinRate float64
	// ProfitFactor is gross positive return over gross absolute negative
	// return: +Inf when there are wins and zero losses, 0 when there are
	// no trades (or no wins and no losses).
	ProfitFactor float64
}

// MarshalJSON renders the profit factor as the string "inf" when infinite,
// since JSON has no numeric representation for it.
func (p Performance) MarshalJSON() ([]byte, error) {
	out := struct {
		TotalTrades  int     `json:"total_trades"`
		WinRate      float64 `json:"win_rate"`
		ProfitFactor any     `json:"profit_factor"`
	}{
		TotalTrades:  p.TotalTrades,
		WinRate:      p.WinRate,
		ProfitFactor: p.ProfitFactor,
	}
	if math.IsInf(p.ProfitFactor, 1) {
		out.ProfitFactor = "inf"
	}
	return json.Marshal(out)
}

// ComputePerformance reduces a trade set. An empty set yields zero metrics,
// not an error.
func ComputePerformance(trades []*domain.TradeRecord) Performance {
	if len(trades) == 0 {
		return Performance{}
	}

	wins := 0
	grossProfit := 0.0
	grossLoss := 0.0
	for _, t := range trades {
		switch {
		case t.ForwardReturnPct > 0:
			wins++
			grossProfit += t.ForwardReturnPct
		case t.ForwardReturnPct < 0:
			grossLoss += -t.ForwardReturnPct
		}
	}

	winRate := round2(float64(wins) / float64(len(trades)) * 100)

	var profitFactor float64
	switch {
	case grossLoss > 0:
		profitFactor = round2(grossProfit / grossLoss)
	case grossProfit > 0:
		profitFactor = math.Inf(1)
	default:
		profitFactor = 0
	}

	return Performance{
		TotalTrades:  len(trades),
		WinRate:      winRate,
		ProfitFactor: profitFactor,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
