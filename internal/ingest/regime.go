package ingest

import (
	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/indicator"
)

// BuildRegimeSeries derives a market regime series from raw index bars:
// close plus the long SMA, aligned onto the ticker's calendar.
//
// Alignment forward-fills: a calendar date missing from the index series
// takes the most recent earlier reading. This is a price-alignment concern
// specific to the external regime series; ticker indicators are never
// forward-filled. Dates before the first index reading are omitted, so the
// regime filter falls back to its fail-open path for them.
func BuildRegimeSeries(indexBars []domain.PriceBar, longSMAPeriod int, calendar []domain.PriceBar) []domain.MarketRegimePoint {
	if len(indexBars) == 0 || len(calendar) == 0 {
		return nil
	}

	longSMA := indicator.LongSMA(indexBars, longSMAPeriod)

	out := make([]domain.MarketRegimePoint, 0, len(calendar))
	j := -1 // index of the latest indexBar at or before the calendar date
	for _, bar := range calendar {
		for j+1 < len(indexBars) && !indexBars[j+1].Date.After(bar.Date) {
			j++
		}
		if j < 0 {
			continue
		}
		out = append(out, domain.MarketRegimePoint{
			Date:    bar.Date,
			Close:   indexBars[j].Close,
			LongSMA: longSMA[j],
		})
	}
	return out
}
