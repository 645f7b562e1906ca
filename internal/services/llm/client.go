package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"burnish/internal/services"
)

const (
	defaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 120 * time.Second

	// One initial attempt plus at most one retry, no matter what the
	// config says. Hammering the provider buys nothing when the
	// deterministic fallback exists.
	attemptCeiling = 2
)

// Config holds the provider settings for the correction model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	RetryAttempts  int
}

// DefaultHTTPTimeout returns the default timeout used for correction requests.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// Client issues chat completion requests against a single configured model.
type Client struct {
	cfg        Config
	httpClient *http.Client
	attempts   int
	backoff    backoffPolicy
	sleeper    func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(base, ceiling time.Duration) Option {
	return func(c *Client) {
		c.backoff = backoffPolicy{base: base, ceiling: ceiling}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleep
	}
}

// NewClient builds a correction model client. cfg.RetryAttempts counts total
// attempts and is clamped to attemptCeiling.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		attempts:   cfg.RetryAttempts,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if c.attempts <= 0 || c.attempts > attemptCeiling {
		c.attempts = attemptCeiling
	}
	return c
}

// Correct sends the correction prompt pair and returns the model's raw reply
// content. The reply is requested as JSON, but the model may not comply; the
// correction parser owns interpretation of whatever comes back. Errors carry
// service markers so the pipeline can decide whether to degrade.
func (c *Client) Correct(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "correct", "system prompt required", nil)
	}
	if userPrompt == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "correct", "user prompt required", nil)
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "llm", "correct", "api key required", nil)
	}

	content, err := c.requestContent(ctx, c.buildRequest(systemPrompt, userPrompt), "llm correct")
	if err != nil {
		return "", c.tagFailure("correct", err)
	}
	return content, nil
}

// HealthCheck issues a minimal round trip to verify the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "llm", "health", "api key required", nil)
	}
	req := c.buildRequest("You must respond with JSON only.", `Respond with {"ok":true}`)
	content, err := c.requestContent(ctx, req, "llm health")
	if err != nil {
		return c.tagFailure("health", err)
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &reply); err != nil {
		return services.Wrap(services.ErrCollaborator, "llm", "health", "parse payload", err)
	}
	if !reply.OK {
		return services.Wrap(services.ErrCollaborator, "llm", "health", "unexpected response", nil)
	}
	return nil
}

func (c *Client) buildRequest(systemPrompt, userPrompt string) chatCompletionRequest {
	return chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
}

// tagFailure maps terminal request failures onto service markers. Caller
// cancellation passes through untouched; everything else is either a timeout
// or a collaborator failure, both of which the orchestrator may degrade.
func (c *Client) tagFailure(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "llm", op, "request deadline exceeded", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "llm", op, "request timed out", err)
	}
	return services.Wrap(services.ErrCollaborator, "llm", op, "correction service unavailable", err)
}

func (c *Client) timeout() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}
