package metrics

import (
	"math"
	"sort"
	"time"

	"equity-pattern-lab/internal/domain"
)

// Feature names reported by the signal-quality correlator, in output order.
var signalFeatures = []string{
	"momentum_score",
	"volume_score",
	"trend_score",
	"volatility_score",
	"atr_pct",
}

// FeatureStats holds descriptive statistics for one feature within one
// outcome group.
type FeatureStats struct {
	Feature string
	Count   int
	Mean    float64
	Std     float64 // sample standard deviation (n-1)
	Min     float64
	Max     float64
}

// OutcomeQuality summarizes the scorer features of all trades that ended in
// one outcome.
type OutcomeQuality struct {
	Outcome  string
	Trades   int
	Features []FeatureStats
}

// AnalyzeSignalQuality joins trades to daily log records by entry date,
// groups by outcome, and reports descriptive statistics per score component
// plus ATR-as-percent-of-price. Trades without a matching log row are
// dropped from the join. Output is ordered by outcome label for
// reproducibility.
func AnalyzeSignalQuality(trades []*domain.TradeRecord, logs []*domain.DailyLogRecord) []OutcomeQuality {
	if len(trades) == 0 || len(logs) == 0 {
		return nil
	}

	logByDate := make(map[time.Time]*domain.DailyLogRecord, len(logs))
	for _, l := range logs {
		logByDate[l.Date] = l
	}

	grouped := make(map[string][]map[string]float64)
	for _, t := range trades {
		l, ok := logByDate[t.EntryDate]
		if !ok {
			continue
		}
		grouped[t.Outcome] = append(grouped[t.Outcome], featureRow(l))
	}

	outcomes := make([]string, 0, len(grouped))
	for o := range grouped {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)

	result := make([]OutcomeQuality, 0, len(outcomes))
	for _, outcome := range outcomes {
		rows := grouped[outcome]
		quality := OutcomeQuality{
			Outcome:  outcome,
			Trades:   len(rows),
			Features: make([]FeatureStats, 0, len(signalFeatures)),
		}
		for _, feature := range signalFeatures {
			quality.Features = append(quality.Features, describe(feature, rows))
		}
		result = append(result, quality)
	}
	return result
}

// featureRow extracts the analyzed features from one daily log record.
func featureRow(l *domain.DailyLogRecord) map[string]float64 {
	atrPct := 0.0
	if l.Price > 0 {
		atrPct = l.ATR / l.Price * 100
	}
	return map[string]float64{
		"momentum_score":   l.Score.MomentumScore,
		"volume_score":     l.Score.VolumeScore,
		"trend_score":      l.Score.TrendScore,
		"volatility_score": l.Score.VolatilityScore,
		"atr_pct":          atrPct,
	}
}

// describe computes count/mean/std/min/max for one feature across rows.
func describe(feature string, rows []map[string]float64) FeatureStats {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		values = append(values, row[feature])
	}

	stats := FeatureStats{Feature: feature, Count: len(values)}
	if len(values) == 0 {
		return stats
	}

	sum := 0.0
	stats.Min = values[0]
	stats.Max = values[0]
	for _, v := range values {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	mean := sum / float64(len(values))
	stats.Mean = round2(mean)
	stats.Min = round2(stats.Min)
	stats.Max = round2(stats.Max)

	if len(values) >= 2 {
		sumSq := 0.0
		for _, v := range values {
			diff := v - mean
			sumSq += diff * diff
		}
		stats.Std = round2(math.Sqrt(sumSq / float64(len(values)-1)))
	}
	return stats
}
