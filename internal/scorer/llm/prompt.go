package llm

import (
	"fmt"
	"strings"

	"equity-pattern-lab/internal/domain"
)

// PromptVersion identifies the prompt template in audit records.
const PromptVersion = "1.0"

// promptTemplate is the analyst instruction block. %s receives the encoded
// window data.
const promptTemplate = `You are an expert quantitative analyst specializing in identifying emergent
patterns in financial time-series data. Your task is to analyze the
provided daily data for a stock and assess the likelihood of a
significant price increase over the forward horizon.

Instructions:
1. Avoid technical jargon: do NOT use names like "Head and Shoulders",
   "Cup and Handle", or "Flag". Describe the behavior you observe in
   plain language.
2. Focus on price and volume dynamics: describe the relationship between
   price movement and volume.
3. Provide a "Pattern Strength Score" from 0 (very bearish) to 10
   (very bullish).
4. Justify your score with a brief, clear rationale.

Data provided:
%s

Required output format (JSON):
{
  "pattern_description": "Your description of the price and volume behavior.",
  "pattern_strength_score": <your score from 0 to 10>,
  "rationale": "Your justification for the score."
}`

// BuildPrompt renders the full prompt for a lookback window.
func BuildPrompt(window []domain.EnrichedBar) string {
	return fmt.Sprintf(promptTemplate, EncodeWindow(window))
}

// EncodeWindow renders the window as one text line per bar, with close and
// volume rescaled to a 0-100 range over the window's own min/max. Flat
// series normalize to a neutral constant instead of dividing by zero.
func EncodeWindow(window []domain.EnrichedBar) string {
	closeMin, closeMax := minMaxClose(window)
	volMin, volMax := minMaxVolume(window)

	lines := make([]string, 0, len(window))
	for _, bar := range window {
		lines = append(lines, fmt.Sprintf(
			"Date: %s, Close: %.2f, Norm Close: %.0f, Volume: %.0f, Norm Vol: %.0f",
			bar.Date.Format("2006-01-02"),
			bar.Close,
			rescale(bar.Close, closeMin, closeMax),
			bar.Volume,
			rescale(bar.Volume, volMin, volMax),
		))
	}
	return strings.Join(lines, "\n")
}

// rescale maps v onto [0, 100] over [lo, hi]; a flat range maps to 50.
func rescale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 50
	}
	return (v - lo) / (hi - lo) * 100
}

func minMaxClose(window []domain.EnrichedBar) (float64, float64) {
	if len(window) == 0 {
		return 0, 0
	}
	lo, hi := window[0].Close, window[0].Close
	for _, b := range window[1:] {
		if b.Close < lo {
			lo = b.Close
		}
		if b.Close > hi {
			hi = b.Close
		}
	}
	return lo, hi
}

func minMaxVolume(window []domain.EnrichedBar) (float64, float64) {
	if len(window) == 0 {
		return 0, 0
	}
	lo, hi := window[0].Volume, window[0].Volume
	for _, b := range window[1:] {
		if b.Volume < lo {
			lo = b.Volume
		}
		if b.Volume > hi {
			hi = b.Volume
		}
	}
	return lo, hi
}
