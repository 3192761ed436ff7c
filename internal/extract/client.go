// Package extract turns spreadsheet CSV text into RAB line items using the
// Gemini generateContent API.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/rab/internal/model"
)

const (
	// DefaultBaseURL is the public Gemini endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single extraction call.
	DefaultTimeout = 60 * time.Second

	maxBodySize = 4 << 20 // 4 MB
)

var (
	// ErrMissingAPIKey indicates no API key was configured.
	ErrMissingAPIKey = errors.New("extract: API key is not configured")
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("extract: unauthorized (API key invalid)")
	// ErrRateLimited indicates the API rate limit or quota was hit.
	ErrRateLimited = errors.New("extract: rate limited")
	// ErrEmptyResponse indicates the model returned no usable candidate.
	ErrEmptyResponse = errors.New("extract: empty response")
	// ErrMalformed indicates the model output is not a JSON array of items.
	ErrMalformed = errors.New("extract: malformed model output")
)

// Client calls the Gemini API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	http    *http.Client
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel selects the model name.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithTimeout bounds each request. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client for the given API key.
// It returns ErrMissingAPIKey when the key is blank.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
		http:    &http.Client{},
		log:     discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Extract asks the model to read csvText and returns the validated drafts.
func (c *Client) Extract(ctx context.Context, csvText string) ([]model.Draft, error) {
	if strings.TrimSpace(csvText) == "" {
		return nil, fmt.Errorf("%w: no spreadsheet content", ErrEmptyResponse)
	}

	start := time.Now()
	text, err := c.generate(ctx, BuildPrompt(csvText))
	if err != nil {
		return nil, err
	}

	drafts, skipped, err := DecodeCandidates([]byte(text))
	if err != nil {
		return nil, err
	}

	entry := c.log.WithFields(logrus.Fields{
		"model":   c.model,
		"items":   len(drafts),
		"elapsed": time.Since(start).Round(time.Millisecond),
	})
	if skipped > 0 {
		entry.WithField("skipped", skipped).Warn("extract: dropped candidates without description or unit")
	}
	entry.Debug("extract: done")
	return drafts, nil
}

// generate posts a prompt and returns the concatenated text of the first candidate.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   itemSchema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("extract: encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("extract: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("User-Agent", "github.com/theirongolddev/rab/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("extract: reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrUnauthorized
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error.Message != "" {
			// Gemini reports an invalid key as 400 INVALID_ARGUMENT.
			if strings.Contains(ae.Error.Message, "API key") {
				return "", ErrUnauthorized
			}
			return "", fmt.Errorf("extract: unexpected status %d: %s", resp.StatusCode, ae.Error.Message)
		}
		return "", fmt.Errorf("extract: unexpected status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("%w: parsing response: %v", ErrMalformed, err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, gr.Candidates[0].FinishReason)
	}
	return b.String(), nil
}
