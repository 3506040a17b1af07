// Package indicator derives rolling technical features from raw OHLCV
// series: simple moving averages, average true range, and period returns.
package indicator

import (
	"math"

	"equity-pattern-lab/internal/domain"
)

// Enrich computes derived fields over the full series and returns the
// evaluable range: bars whose required fields (fast SMA, ATR, period return)
// are all defined. Bars inside the warm-up are dropped, never forward-filled.
// The input series is not mutated; Enrich is idempotent.
func Enrich(bars []domain.PriceBar, cfg domain.IndicatorConfig) []domain.EnrichedBar {
	n := len(bars)
	if n == 0 {
		return nil
	}

	smaFast := rollingMean(closes(bars), cfg.FastSMAPeriod)
	atr := rollingMean(trueRanges(bars), cfg.ATRPeriod)
	returns := periodReturns(bars)

	var smaSlow []float64
	if cfg.SlowSMAPeriod > 0 {
		smaSlow = rollingMean(closes(bars), cfg.SlowSMAPeriod)
	}

	enriched := make([]domain.EnrichedBar, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(smaFast[i]) || math.IsNaN(atr[i]) || math.IsNaN(returns[i]) {
			continue
		}
		eb := domain.EnrichedBar{
			PriceBar:     bars[i],
			SMAFast:      smaFast[i],
			ATR:          atr[i],
			PeriodReturn: returns[i],
		}
		if smaSlow != nil && !math.IsNaN(smaSlow[i]) {
			v := smaSlow[i]
			eb.SMASlow = &v
		}
		enriched = append(enriched, eb)
	}
	return enriched
}

func closes(bars []domain.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// trueRanges computes TR = max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close, so its TR is NaN and propagates
// through the ATR warm-up instead of being treated as zero.
func trueRanges(bars []domain.PriceBar) []float64 {
	out := make([]float64, len(bars))
	out[0] = math.NaN()
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - prevClose)
		lc := math.Abs(bars[i].Low - prevClose)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// periodReturns computes the simple percentage change of close vs. the
// previous bar. The first bar is NaN.
func periodReturns(bars []domain.PriceBar) []float64 {
	out := make([]float64, len(bars))
	out[0] = math.NaN()
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (bars[i].Close - prev) / prev
	}
	return out
}

// rollingMean computes a trailing simple mean over the given period.
// Positions with fewer than period defined values, or any NaN inside the
// window, are NaN. This is deliberately a plain arithmetic mean, not
// Wilder's smoothing, so runs stay reproducible across revisions.
func rollingMean(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i := range values {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		valid := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false
				break
			}
			sum += values[j]
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// LongSMA computes the trailing simple mean of close used by the regime
// filter's reference index. Positions inside the warm-up return nil.
func LongSMA(bars []domain.PriceBar, period int) []*float64 {
	means := rollingMean(closes(bars), period)
	out := make([]*float64, len(means))
	for i, m := range means {
		if !math.IsNaN(m) {
			v := m
			out[i] = &v
		}
	}
	return out
}
