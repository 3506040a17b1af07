package domain

// Momentum component variants. Exactly one is active per configuration.
const (
	// MomentumModeRelativeStrength scores the stock's N-day return minus
	// the market index's N-day return.
	MomentumModeRelativeStrength = "RELATIVE_STRENGTH"

	// MomentumModeOwnReturn scores the stock's own N-day return, weighted
	// by trend consistency (up-days / N) when enabled.
	MomentumModeOwnReturn = "OWN_RETURN"
)

// Scorer strategy selection.
const (
	ScorerTypeDeterministic = "DETERMINISTIC"
	ScorerTypeLLM           = "LLM"
)

// IndicatorConfig holds indicator periods for series enrichment.
type IndicatorConfig struct {
	FastSMAPeriod int // e.g. 50
	SlowSMAPeriod int // 0 disables the slow SMA
	ATRPeriod     int // e.g. 14
}

// DefaultIndicatorConfig returns the reference indicator periods.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		FastSMAPeriod: 50,
		SlowSMAPeriod: 200,
		ATRPeriod:     14,
	}
}

// ScorerConfig holds every tunable of the deterministic pattern scorer.
// Immutable: constructed once and passed into the scorer.
type ScorerConfig struct {
	MomentumMode string // RELATIVE_STRENGTH or OWN_RETURN

	// Momentum component
	MomentumLookbackDays int     // N-day return horizon, e.g. 10
	MomentumScoreMax     float64 // e.g. 4.0
	// RELATIVE_STRENGTH: outperformance that maps to MomentumScoreMax, e.g. 0.05
	RelativeStrengthTarget float64
	// OWN_RETURN: own return that maps to MomentumScoreMax, e.g. 0.10
	OwnReturnTarget float64
	// OWN_RETURN: multiply by up-days/N to penalize choppy paths
	UseTrendConsistency bool

	// Volume-surge component
	VolumeScoreMax   float64 // e.g. 3.0
	VolumeSurgeRatio float64 // surge over median that maps to max, e.g. 1.0

	// Trend-position bonus (binary)
	TrendBonusScore float64 // e.g. 3.0

	// Volatility component (inverse ATR%, gated on positive momentum)
	VolatilityScoreMax float64 // e.g. 2.0
	VolatilityPctLow   float64 // atr% at or below earns the full max, e.g. 1.5
	VolatilityPctHigh  float64 // atr% at or above earns zero, e.g. 4.0
}

// DefaultScorerConfig returns the reference scoring configuration
// (component maxima 4/3/3/2, 12 total).
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		MomentumMode:           MomentumModeRelativeStrength,
		MomentumLookbackDays:   10,
		MomentumScoreMax:       4.0,
		RelativeStrengthTarget: 0.05,
		OwnReturnTarget:        0.10,
		UseTrendConsistency:    true,
		VolumeScoreMax:         3.0,
		VolumeSurgeRatio:       1.0,
		TrendBonusScore:        3.0,
		VolatilityScoreMax:     2.0,
		VolatilityPctLow:       1.5,
		VolatilityPctHigh:      4.0,
	}
}

// MomentumScaleFactor maps the configured target move to the component max.
func (c ScorerConfig) MomentumScaleFactor() float64 {
	switch c.MomentumMode {
	case MomentumModeOwnReturn:
		if c.OwnReturnTarget == 0 {
			return 0
		}
		return c.MomentumScoreMax / c.OwnReturnTarget
	default:
		if c.RelativeStrengthTarget == 0 {
			return 0
		}
		return c.MomentumScoreMax / c.RelativeStrengthTarget
	}
}

// VolumeScaleFactor maps the configured surge ratio to the component max.
func (c ScorerConfig) VolumeScaleFactor() float64 {
	if c.VolumeSurgeRatio == 0 {
		return 0
	}
	return c.VolumeScoreMax / c.VolumeSurgeRatio
}

// RiskConfig holds the ATR multiples of the risk model.
// Asymmetric by design: the reference configuration is 2x reward:risk.
type RiskConfig struct {
	StopATRMultiple   float64 // e.g. 2.0
	TargetATRMultiple float64 // e.g. 4.0
}

// DefaultRiskConfig returns the reference 2:4 ATR multiples.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		StopATRMultiple:   2.0,
		TargetATRMultiple: 4.0,
	}
}

// BacktestConfig holds the walk-forward loop parameters.
type BacktestConfig struct {
	LookbackDays   int     // trailing window length, e.g. 40
	ForwardHorizon int     // forward outcome window, e.g. 20
	ScoreThreshold float64 // signal trigger, e.g. 7.0

	Indicators IndicatorConfig
	Scorer     ScorerConfig
	Risk       RiskConfig
}

// DefaultBacktestConfig returns the reference backtest configuration.
func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		LookbackDays:   40,
		ForwardHorizon: 20,
		ScoreThreshold: 7.0,
		Indicators:     DefaultIndicatorConfig(),
		Scorer:         DefaultScorerConfig(),
		Risk:           DefaultRiskConfig(),
	}
}
