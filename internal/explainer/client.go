// Package explainer is the client of the remote explanation service.
// Every call is a single POST; failures are returned, never retried, because
// a retried request can produce a second user-visible reply.
package explainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gapless/explainbot/internal/config"
	"github.com/gapless/explainbot/internal/conversation"
	apperrors "github.com/gapless/explainbot/internal/errors"
)

const (
	explainPath     = "/api/explain"
	explainMorePath = "/api/explain-more"

	maxResponseSize = 1 << 20
)

// Request is the body of both endpoints. Result carries the previous
// explanation and is only sent to explain-more.
type Request struct {
	Text     string                `json:"text"`
	Platform conversation.Platform `json:"platform"`
	Result   string                `json:"result,omitempty"`
	ServerID string                `json:"server_id,omitempty"`
}

// Response is the body returned by both endpoints.
type Response struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Client calls the explanation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the configured timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg config.ExplainerConfig, log *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperrors.NewConfig("explainer base URL is required", nil)
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("component", "explainer_client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.log.Info("Explainer client initialized", "base_url", c.baseURL, "timeout", c.httpClient.Timeout)
	return c, nil
}

// Explain asks for a first explanation of text.
func (c *Client) Explain(ctx context.Context, text string, platform conversation.Platform, serverID string) (string, error) {
	return c.post(ctx, explainPath, Request{
		Text:     text,
		Platform: platform,
		ServerID: serverID,
	})
}

// ExplainMore asks for a deeper explanation of text given the previous one.
func (c *Client) ExplainMore(ctx context.Context, text, previous string, platform conversation.Platform, serverID string) (string, error) {
	return c.post(ctx, explainMorePath, Request{
		Text:     text,
		Platform: platform,
		Result:   previous,
		ServerID: serverID,
	})
}

func (c *Client) post(ctx context.Context, path string, body Request) (string, error) {
	log := c.log.With("path", path, "platform", body.Platform)

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.DebugContext(ctx, "Calling explanation service", "text_length", len(body.Text))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WarnContext(ctx, "Explanation service unreachable", "error", err)
		return "", apperrors.NewTransport("POST "+path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.DebugContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		log.WarnContext(ctx, "Failed to read explanation response", "error", err, "status", resp.StatusCode)
		return "", apperrors.NewTransport("read "+path+" response", err)
	}

	var out Response
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := fmt.Errorf("status %d", resp.StatusCode)
		if decodeErr == nil && out.Error != "" {
			detail = fmt.Errorf("status %d: %s", resp.StatusCode, out.Error)
		}
		log.WarnContext(ctx, "Explanation service returned an error status", "status", resp.StatusCode, "error", detail)
		return "", apperrors.NewUpstream("POST "+path, detail)
	}
	if decodeErr != nil {
		log.WarnContext(ctx, "Explanation service returned a malformed body", "error", decodeErr, "status", resp.StatusCode)
		return "", apperrors.NewUpstream("decode "+path+" response", decodeErr)
	}
	if strings.TrimSpace(out.Result) == "" {
		log.WarnContext(ctx, "Explanation service returned no result", "status", resp.StatusCode)
		return "", apperrors.NewUpstream("POST "+path, fmt.Errorf("no explanation provided"))
	}

	log.DebugContext(ctx, "Explanation received", "result_length", len(out.Result))
	return out.Result, nil
}

// Probe checks that the service answers HTTP at its base URL. Any response
// below 500 counts as reachable since the service only defines POST routes.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransport("GET /", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode >= http.StatusInternalServerError {
		return apperrors.NewUpstream("GET /", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}
