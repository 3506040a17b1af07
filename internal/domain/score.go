package domain

// ScoreResult is the composite pattern score produced by a scorer for one
// evaluation day. Component scores are always populated by the deterministic
// scorer; LLM-backed scorers may leave them zero and carry the analysis in
// Description.
type ScoreResult struct {
	MomentumScore   float64
	VolumeScore     float64
	TrendScore      float64
	VolatilityScore float64

	FinalScore  float64
	Description string
}

// ZeroScore returns an all-zero score with the given description. Used for
// non-evaluable days and degraded scorer calls so that the daily log still
// records why the day scored zero.
func ZeroScore(description string) *ScoreResult {
	return &ScoreResult{Description: description}
}
