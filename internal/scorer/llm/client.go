package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default client configuration.
const (
	DefaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel       = "moonshotai/kimi-k2:free"
	DefaultTemperature = 0.2
	DefaultTimeout     = 60 * time.Second
)

// Client errors.
var (
	ErrMissingAPIKey = errors.New("api key not configured")
	ErrHTTPStatus    = errors.New("unexpected http status")
	ErrEmptyResponse = errors.New("response contains no choices")
)

// Completion is the usable part of one chat-completion response.
type Completion struct {
	Content    string // raw model output text
	TokenCount int    // total tokens reported by the provider
}

// Client performs chat completions. Tests substitute a stub.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// HTTPClient is the provider-backed Client.
type HTTPClient struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithEndpoint overrides the completion endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *HTTPClient) {
		c.endpoint = endpoint
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ClientOption {
	return func(c *HTTPClient) {
		c.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *HTTPClient) {
		c.temperature = t
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a provider client. The API key is an explicit
// parameter, never read from the environment here, so tests stay
// deterministic without environment mutation.
func NewHTTPClient(apiKey string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    DefaultEndpoint,
		apiKey:      apiKey,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		client:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier, for audit records.
func (c *HTTPClient) Model() string { return c.model }

// Temperature returns the configured temperature, for audit records.
func (c *HTTPClient) Temperature() float64 { return c.temperature }

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat respFormat    `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete performs one blocking chat completion round-trip.
func (c *HTTPClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    c.temperature,
		ResponseFormat: respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post completion: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d %s", ErrHTTPStatus, resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return &Completion{
		Content:    parsed.Choices[0].Message.Content,
		TokenCount: parsed.Usage.TotalTokens,
	}, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
