// Package dispatch delivers accepted verifications to the downstream records
// endpoint as a form-encoded POST.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"docverify/internal/verification"
	"docverify/pkg/requestcontext"
)

// ErrNotConfigured is returned when no endpoint URL was provided.
var ErrNotConfigured = errors.New("dispatch endpoint is not configured")

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts verified payloads downstream.
type Client struct {
	url    string
	apiKey string
	http   HTTPDoer
	logger *slog.Logger
}

// New creates a Client. A nil doer uses a default http.Client.
func New(url, apiKey string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	return &Client{url: url, apiKey: apiKey, http: doer, logger: logger}
}

// Send posts the payload. Any non-2xx answer is an error.
func (c *Client) Send(ctx context.Context, payload verification.Payload) error {
	if c.url == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(payload.Values().Encode()))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post verification: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("downstream returned status %d", res.StatusCode)
	}

	c.logger.InfoContext(ctx, "verification dispatched",
		"request_id", requestcontext.RequestID(ctx),
		"user_type", string(payload.Category),
		"status", res.StatusCode,
	)
	return nil
}
