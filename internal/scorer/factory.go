package scorer

import (
	"errors"

	"equity-pattern-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownMomentumMode = errors.New("unknown momentum mode")
	ErrInvalidLookback     = errors.New("momentum lookback must be positive")
	ErrInvalidTarget       = errors.New("momentum scaling target must be positive")
	ErrInvalidBand         = errors.New("volatility band must satisfy low < high")
)

// FromConfig creates the deterministic Scorer from a ScorerConfig.
// Validates the active momentum variant and its scaling targets.
// The LLM-backed scorer is constructed separately (scorer/llm) and
// substituted behind the same interface by the caller.
func FromConfig(cfg domain.ScorerConfig) (*Deterministic, error) {
	switch cfg.MomentumMode {
	case domain.MomentumModeRelativeStrength:
		if cfg.RelativeStrengthTarget <= 0 {
			return nil, ErrInvalidTarget
		}
	case domain.MomentumModeOwnReturn:
		if cfg.OwnReturnTarget <= 0 {
			return nil, ErrInvalidTarget
		}
	default:
		return nil, ErrUnknownMomentumMode
	}

	if cfg.MomentumLookbackDays <= 0 {
		return nil, ErrInvalidLookback
	}
	if cfg.VolatilityPctLow >= cfg.VolatilityPctHigh {
		return nil, ErrInvalidBand
	}

	return NewDeterministic(cfg), nil
}
