package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkghttp "CoPenny/pkg/http"
	"CoPenny/pkg/logger"
)

// Providers.
const (
	ProviderFree       = "free"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

const (
	defaultGeminiURL     = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"
)

// ProviderError carries the provider's raw status and a body snippet for
// any non-2xx result, non-JSON body or unrecognized envelope shape.
type ProviderError struct {
	Provider string
	Status   int
	Snippet  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s: status %d: %s", e.Provider, e.Status, e.Snippet)
}

// Metrics is the subset of metrics the client records.
type Metrics interface {
	RecordLLMCall(provider, outcome string)
}

// Config holds provider selection and transport tuning.
type Config struct {
	Provider        string
	BaseURL         string // free provider endpoint
	PayloadStyle    string // "message" or "messages" (free provider only)
	GeminiAPIKey    string
	GeminiModel     string
	GeminiURL       string
	OpenRouterKey   string
	OpenRouterModel string
	OpenRouterURL   string
	Timeout         time.Duration
	Retries         int
	Backoff         time.Duration
}

// Client sends completion requests to one of the hosted providers and
// normalizes the differing response envelopes into plain text.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	log     *logger.Logger
	metrics Metrics
}

// Option configures the Client.
type Option func(*Client)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a completion client for the configured provider.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Provider == "" {
		cfg.Provider = ProviderFree
	}
	if cfg.PayloadStyle == "" {
		cfg.PayloadStyle = "message"
	}
	if cfg.GeminiURL == "" {
		cfg.GeminiURL = defaultGeminiURL
	}
	if cfg.OpenRouterURL == "" {
		cfg.OpenRouterURL = defaultOpenRouterURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}

	c := &Client{
		cfg:  cfg,
		http: pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the active provider name.
func (c *Client) Provider() string {
	return c.cfg.Provider
}

// Complete sends one completion request and returns the reply text.
// Transport errors are retried with linear backoff; HTTP error statuses
// and malformed envelopes are not retried.
func (c *Client) Complete(ctx context.Context, prompt, system string) (string, error) {
	opts, err := c.buildRequest(prompt, system)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		resp, err := c.http.SendRequest(ctx, opts)
		if err != nil {
			lastErr = err
			if c.log != nil {
				c.log.Warn("llm transport error",
					logger.String("provider", c.cfg.Provider),
					logger.Int("attempt", attempt),
					logger.Error(err),
				)
			}
			select {
			case <-ctx.Done():
				c.record("error")
				return "", ctx.Err()
			case <-time.After(c.cfg.Backoff * time.Duration(attempt)):
			}
			continue
		}

		text, err := c.decodeResponse(resp)
		if err != nil {
			c.record("error")
			return "", err
		}
		c.record("ok")
		return text, nil
	}

	c.record("error")
	return "", fmt.Errorf("llm request failed after %d attempts: %w", c.cfg.Retries, lastErr)
}

func (c *Client) record(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordLLMCall(c.cfg.Provider, outcome)
	}
}

func (c *Client) buildRequest(prompt, system string) (*pkghttp.RequestOptions, error) {
	switch c.cfg.Provider {
	case ProviderFree:
		return c.buildFreeRequest(prompt, system), nil
	case ProviderGemini:
		return c.buildGeminiRequest(prompt, system), nil
	case ProviderOpenRouter:
		return c.buildOpenRouterRequest(prompt, system), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", c.cfg.Provider)
	}
}

func (c *Client) buildFreeRequest(prompt, system string) *pkghttp.RequestOptions {
	var body interface{}
	if c.cfg.PayloadStyle == "messages" {
		msgs := make([]map[string]string, 0, 2)
		if system != "" {
			msgs = append(msgs, map[string]string{"role": "system", "content": system})
		}
		msgs = append(msgs, map[string]string{"role": "user", "content": prompt})
		body = map[string]interface{}{"messages": msgs}
	} else {
		text := prompt
		if system != "" {
			text = system + "\n\n" + prompt
		}
		body = map[string]interface{}{"message": text}
	}
	return &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.cfg.BaseURL,
		Body:   body,
	}
}

func (c *Client) buildGeminiRequest(prompt, system string) *pkghttp.RequestOptions {
	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	if system != "" {
		body["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]string{{"text": system}},
		}
	}
	url := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(c.cfg.GeminiURL, "/"), c.cfg.GeminiModel)
	return &pkghttp.RequestOptions{
		Method:      pkghttp.MethodPost,
		URL:         url,
		QueryParams: map[string][]string{"key": {c.cfg.GeminiAPIKey}},
		Body:        body,
	}
}

func (c *Client) buildOpenRouterRequest(prompt, system string) *pkghttp.RequestOptions {
	msgs := make([]map[string]string, 0, 2)
	if system != "" {
		msgs = append(msgs, map[string]string{"role": "system", "content": system})
	}
	msgs = append(msgs, map[string]string{"role": "user", "content": prompt})
	return &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.cfg.OpenRouterURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.cfg.OpenRouterKey,
		},
		Body: map[string]interface{}{
			"model":    c.cfg.OpenRouterModel,
			"messages": msgs,
		},
	}
}

const snippetLimit = 300

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > snippetLimit {
		s = s[:snippetLimit]
	}
	return s
}

func (c *Client) decodeResponse(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{
			Provider: c.cfg.Provider,
			Status:   resp.StatusCode,
			Snippet:  snippet(body),
		}
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &ProviderError{
			Provider: c.cfg.Provider,
			Status:   resp.StatusCode,
			Snippet:  snippet(body),
		}
	}

	if text, ok := extractText(envelope); ok {
		return text, nil
	}

	return "", &ProviderError{
		Provider: c.cfg.Provider,
		Status:   resp.StatusCode,
		Snippet:  snippet(body),
	}
}

var textKeys = []string{"answer", "response", "message", "output", "text"}

// extractText normalizes the differing provider success envelopes into
// plain text via an ordered list of key probes.
func extractText(env map[string]interface{}) (string, bool) {
	// {"status": "success", "response": ...}
	if status, _ := env["status"].(string); status == "success" {
		if text, ok := firstStringKey(env, "response", "message", "output", "text"); ok {
			return text, true
		}
	}

	// OpenAI style: choices[0].message.content, choices[0].text
	if choices, ok := env["choices"].([]interface{}); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]interface{}); ok {
			if msg, ok := choice["message"].(map[string]interface{}); ok {
				if content, ok := msg["content"].(string); ok {
					return content, true
				}
			}
			if text, ok := choice["text"].(string); ok {
				return text, true
			}
		}
	}

	// Flat keys at top level, then nested under "data".
	if text, ok := firstStringKey(env, textKeys...); ok {
		return text, true
	}
	if data, ok := env["data"].(map[string]interface{}); ok {
		if text, ok := firstStringKey(data, textKeys...); ok {
			return text, true
		}
	}

	// Gemini: candidates[0].content.parts[0].text
	if candidates, ok := env["candidates"].([]interface{}); ok && len(candidates) > 0 {
		if cand, ok := candidates[0].(map[string]interface{}); ok {
			if content, ok := cand["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]interface{}); ok {
						if text, ok := part["text"].(string); ok {
							return text, true
						}
					}
				}
			}
		}
	}

	return "", false
}

func firstStringKey(m map[string]interface{}, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
