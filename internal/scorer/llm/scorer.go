// Package llm implements the LLM-backed pattern scoring strategy. It shares
// the scorer.Scorer contract with the deterministic implementation: the
// backtest loop cannot tell them apart. Every call that yields a usable
// score is content-addressably audited first, and every failure mode
// degrades to a zero score with an error tag so the loop keeps advancing.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"equity-pattern-lab/internal/domain"
	"equity-pattern-lab/internal/idhash"
	"equity-pattern-lab/internal/observability"
	"equity-pattern-lab/internal/scorer"
)

// Error tags carried in degraded score descriptions.
const (
	TagMissingCredentials = "MISSING_CREDENTIALS"
	TagHTTPError          = "API_HTTP_ERROR"
	TagResponseError      = "API_RESPONSE_ERROR"
	TagAuditError         = "AUDIT_ERROR"
)

// Scorer scores windows by prompting a remote model.
type Scorer struct {
	client      Client
	sink        AuditSink
	metrics     *observability.Metrics
	model       string
	temperature float64
}

// analysis is the JSON object the model is instructed to return.
type analysis struct {
	PatternDescription   string  `json:"pattern_description"`
	PatternStrengthScore float64 `json:"pattern_strength_score"`
	Rationale            string  `json:"rationale"`
}

// New creates an LLM scorer. The audit sink is required: scoring without an
// audit trail is not supported.
func New(client Client, sink AuditSink) (*Scorer, error) {
	if client == nil {
		return nil, errors.New("llm scorer requires a client")
	}
	if sink == nil {
		return nil, errors.New("llm scorer requires an audit sink")
	}

	s := &Scorer{
		client:      client,
		sink:        sink,
		model:       DefaultModel,
		temperature: DefaultTemperature,
	}
	if hc, ok := client.(*HTTPClient); ok {
		s.model = hc.Model()
		s.temperature = hc.Temperature()
	}
	return s, nil
}

// WithMetrics attaches observability counters.
func (s *Scorer) WithMetrics(m *observability.Metrics) *Scorer {
	s.metrics = m
	return s
}

// ID returns the scorer identifier including the model.
func (s *Scorer) ID() string {
	return fmt.Sprintf("LLM_%s_v%s", s.model, PromptVersion)
}

// Score prompts the model with the encoded window. All failure modes return
// a zero ScoreResult carrying an error tag; the error return stays nil so
// the orchestrator advances through the date sequence regardless.
func (s *Scorer) Score(ctx context.Context, input *scorer.Input) (*domain.ScoreResult, error) {
	prompt := BuildPrompt(input.Window)
	promptHash := idhash.ComputePromptHash(prompt)

	start := time.Now()
	completion, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return s.degrade(classify(err), err), nil
	}
	s.metrics.ObserveLLMCall(time.Since(start), completion.TokenCount)

	// Audit before trusting: a response that cannot be audited is not used.
	record := AuditRecord{
		PromptVersion: PromptVersion,
		PromptHash:    promptHash,
		Model:         s.model,
		Temperature:   s.temperature,
		TokenCount:    completion.TokenCount,
		Response:      completion.Content,
		Timestamp:     now(),
	}
	if err := s.sink.Write(record); err != nil {
		return s.degrade(TagAuditError, err), nil
	}
	s.metrics.ObserveAuditRecord()

	parsed, err := parseAnalysis(completion.Content)
	if err != nil {
		return s.degrade(TagResponseError, err), nil
	}

	return &domain.ScoreResult{
		FinalScore:  parsed.PatternStrengthScore,
		Description: parsed.PatternDescription,
	}, nil
}

// degrade converts a failure into the neutral tagged result.
func (s *Scorer) degrade(tag string, err error) *domain.ScoreResult {
	s.metrics.ObserveLLMFailure(tag)
	return domain.ZeroScore(fmt.Sprintf("%s: %v", tag, err))
}

func classify(err error) string {
	if errors.Is(err, ErrMissingAPIKey) {
		return TagMissingCredentials
	}
	return TagHTTPError
}

// parseAnalysis extracts the JSON object from the model output. Models wrap
// JSON in prose often enough that we cut from the first '{' to the last '}'
// before decoding.
func parseAnalysis(content string) (*analysis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var parsed analysis
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &parsed, nil
}

// Ensure Scorer implements scorer.Scorer
var _ scorer.Scorer = (*Scorer)(nil)
