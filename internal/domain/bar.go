// Package domain contains the core types shared across the backtester:
// price bars, indicator-enriched bars, score results, trade records and
// configuration. It has no dependencies on other internal packages.
package domain

import "time"

// PriceBar is one daily OHLCV observation for a single ticker. Dates are
// normalized to UTC midnight so that map lookups and joins by date are exact.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// EnrichedBar is a price bar plus the derived indicator values computed over
// the history preceding it. The slow SMA is a pointer because it is optional:
// short series legitimately never accumulate enough history for it, while a
// missing fast SMA or ATR makes the bar non-evaluable.
type EnrichedBar struct {
	PriceBar

	SMAFast      float64
	SMASlow      *float64
	ATR          float64
	PeriodReturn float64
}

// MarketRegimePoint is one observation of the benchmark index used by the
// regime filter: the index close and its long SMA on a given date. LongSMA is
// nil while the index series is still warming up.
type MarketRegimePoint struct {
	Date    time.Time
	Close   float64
	LongSMA *float64
}
