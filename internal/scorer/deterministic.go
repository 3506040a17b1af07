package scorer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"equity-pattern-lab/internal/domain"
)

// Deterministic is the rule-based scoring strategy: four independently
// computed components summed unclamped into the final score. Bit-for-bit
// reproducible given the same inputs.
type Deterministic struct {
	cfg domain.ScorerConfig
}

// NewDeterministic creates the rule-based scorer.
func NewDeterministic(cfg domain.ScorerConfig) *Deterministic {
	return &Deterministic{cfg: cfg}
}

// ID returns the scorer identifier including the active momentum variant.
func (s *Deterministic) ID() string {
	return fmt.Sprintf("PATTERN_%s_%dd", s.cfg.MomentumMode, s.cfg.MomentumLookbackDays)
}

// Score evaluates one lookback window against the configured ruleset.
func (s *Deterministic) Score(_ context.Context, input *Input) (*domain.ScoreResult, error) {
	minLen := s.cfg.MomentumLookbackDays + 1
	if len(input.Window) < minLen {
		return domain.ZeroScore(fmt.Sprintf(
			"Not enough data for %d-day analysis.", s.cfg.MomentumLookbackDays)), nil
	}

	momentum := s.momentumScore(input)
	volume := s.volumeScore(input.Window)
	trend := s.trendScore(input.CurrentPrice, input.SMAFast)
	volatility := s.volatilityScore(input.CurrentPrice, input.ATR, momentum)

	final := round2(momentum + volume + trend + volatility)

	label := "RS"
	if s.cfg.MomentumMode == domain.MomentumModeOwnReturn {
		label = "Mom"
	}
	desc := fmt.Sprintf("%s(%.1f) Vol(%.1f) SMA(%.1f) Volatility(%.1f)",
		label, momentum, volume, trend, volatility)

	return &domain.ScoreResult{
		MomentumScore:   momentum,
		VolumeScore:     volume,
		TrendScore:      trend,
		VolatilityScore: volatility,
		FinalScore:      final,
		Description:     desc,
	}, nil
}

// momentumScore dispatches on the configured variant.
func (s *Deterministic) momentumScore(input *Input) float64 {
	switch s.cfg.MomentumMode {
	case domain.MomentumModeOwnReturn:
		return s.ownReturnScore(input.Window)
	default:
		return s.relativeStrengthScore(input.Window, input.MarketWindow)
	}
}

// relativeStrengthScore scores the stock's N-day return minus the market's
// N-day return, scaled so the configured outperformance maps to the max.
// Without a full market window the component is 0.
func (s *Deterministic) relativeStrengthScore(window []domain.EnrichedBar, market []domain.MarketRegimePoint) float64 {
	lookback := s.cfg.MomentumLookbackDays + 1
	if len(window) < lookback || len(market) < lookback {
		return 0
	}

	stockReturn := pctChange(window[len(window)-lookback].Close, window[len(window)-1].Close)
	marketReturn := pctChange(market[len(market)-lookback].Close, market[len(market)-1].Close)

	relative := stockReturn - marketReturn
	return clamp(relative*s.cfg.MomentumScaleFactor(), 0, s.cfg.MomentumScoreMax)
}

// ownReturnScore scores the stock's own N-day return, optionally weighted
// by trend consistency (fraction of up-days in the lookback) so choppy paths
// score below smooth uptrends with the same net return.
func (s *Deterministic) ownReturnScore(window []domain.EnrichedBar) float64 {
	lookback := s.cfg.MomentumLookbackDays + 1
	if len(window) < lookback {
		return 0
	}

	ret := pctChange(window[len(window)-lookback].Close, window[len(window)-1].Close)
	score := clamp(ret*s.cfg.MomentumScaleFactor(), 0, s.cfg.MomentumScoreMax)

	if s.cfg.UseTrendConsistency && score > 0 {
		upDays := 0
		for i := len(window) - s.cfg.MomentumLookbackDays; i < len(window); i++ {
			if window[i].Close > window[i-1].Close {
				upDays++
			}
		}
		score *= float64(upDays) / float64(s.cfg.MomentumLookbackDays)
	}
	return score
}

// volumeScore scores the last bar's volume surge over the window median.
// A zero median yields 0: no crash, no surge signal.
func (s *Deterministic) volumeScore(window []domain.EnrichedBar) float64 {
	median := medianVolume(window)
	if median <= 0 {
		return 0
	}
	surge := window[len(window)-1].Volume/median - 1.0
	return clamp(surge*s.cfg.VolumeScaleFactor(), 0, s.cfg.VolumeScoreMax)
}

// trendScore awards the full bonus iff price is above a defined fast SMA.
func (s *Deterministic) trendScore(price, smaFast float64) float64 {
	if !math.IsNaN(smaFast) && price > smaFast {
		return s.cfg.TrendBonusScore
	}
	return 0
}

// volatilityScore rewards low ATR-as-percent-of-price, linearly between the
// configured band. Gated: volatility amplifies momentum, it is never a
// standalone signal, so non-positive momentum forces 0.
func (s *Deterministic) volatilityScore(price, atr, momentum float64) float64 {
	if momentum <= 0 || price <= 0 || math.IsNaN(atr) {
		return 0
	}

	atrPct := atr / price * 100
	if atrPct <= s.cfg.VolatilityPctLow {
		return s.cfg.VolatilityScoreMax
	}
	if atrPct >= s.cfg.VolatilityPctHigh {
		return 0
	}

	band := s.cfg.VolatilityPctHigh - s.cfg.VolatilityPctLow
	if band <= 0 {
		return 0
	}
	return s.cfg.VolatilityScoreMax * (s.cfg.VolatilityPctHigh - atrPct) / band
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func medianVolume(window []domain.EnrichedBar) float64 {
	vols := make([]float64, len(window))
	for i, b := range window {
		vols[i] = b.Volume
	}
	sort.Float64s(vols)
	n := len(vols)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return vols[n/2]
	}
	return (vols[n/2-1] + vols[n/2]) / 2
}

// Ensure Deterministic implements Scorer
var _ Scorer = (*Deterministic)(nil)
