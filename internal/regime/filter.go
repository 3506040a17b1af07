// Package regime classifies evaluation days against a reference market
// index: days where the index closes below its long SMA are blocked.
// The filter fails open: missing data never blocks evaluation.
package regime

import (
	"time"

	"equity-pattern-lab/internal/domain"
)

// Status is the tagged outcome of a regime lookup.
type Status int

// Lookup outcomes.
const (
	// StatusPass means the market is not in a confirmed downtrend
	// (close >= long SMA, or the long SMA is not yet warmed up).
	StatusPass Status = iota

	// StatusBlocked means the index closed below its long SMA; the day is
	// skipped entirely.
	StatusBlocked

	// StatusUnknown means no regime data exists for the date; the filter
	// is skipped for that day only (warn, don't block).
	StatusUnknown
)

// Decision is the result of a regime lookup.
type Decision struct {
	Status Status
}

// Pass reports whether the day may be evaluated. Only a confirmed
// downtrend reading blocks; absent data fails open.
func (d Decision) Pass() bool {
	return d.Status != StatusBlocked
}

// Filter performs date lookups against an aligned market regime series.
// A nil Filter is valid and always passes (regime data unavailable).
type Filter struct {
	byDate map[time.Time]domain.MarketRegimePoint
}

// NewFilter builds a Filter from a regime series already aligned onto the
// ticker's calendar (see ingest.BuildRegimeSeries). Returns nil for an
// empty series so callers can treat "no filter" uniformly.
func NewFilter(series []domain.MarketRegimePoint) *Filter {
	if len(series) == 0 {
		return nil
	}
	byDate := make(map[time.Time]domain.MarketRegimePoint, len(series))
	for _, p := range series {
		byDate[p.Date] = p
	}
	return &Filter{byDate: byDate}
}

// Lookup classifies a single date. On a nil Filter every date passes.
func (f *Filter) Lookup(date time.Time) Decision {
	if f == nil {
		return Decision{Status: StatusPass}
	}

	p, ok := f.byDate[date]
	if !ok {
		return Decision{Status: StatusUnknown}
	}

	// Fail only on a confirmed downtrend reading; an unwarmed long SMA
	// passes.
	if p.LongSMA != nil && p.Close < *p.LongSMA {
		return Decision{Status: StatusBlocked}
	}
	return Decision{Status: StatusPass}
}

// Window returns the regime points for the given dates, in order, skipping
// dates without data. Used to hand the scorer a market window parallel to
// the stock's lookback window.
func (f *Filter) Window(dates []time.Time) []domain.MarketRegimePoint {
	if f == nil {
		return nil
	}
	out := make([]domain.MarketRegimePoint, 0, len(dates))
	for _, d := range dates {
		if p, ok := f.byDate[d]; ok {
			out = append(out, p)
		}
	}
	return out
}
