// Package facematch compares a selfie against an ID photo through a DeepFace-style
// HTTP service.
package facematch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"docverify/internal/verification"
	"docverify/pkg/requestcontext"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type verifyRequest struct {
	Image1         string `json:"img1"`
	Image2         string `json:"img2"`
	DistanceMetric string `json:"distance_metric"`
}

type verifyResponse struct {
	Verified  bool    `json:"verified"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
	Error     string  `json:"error"`
}

// Client calls the face verification service.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
	logger  *slog.Logger
}

// New creates a Client. A nil doer uses a default http.Client.
func New(baseURL, apiKey string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    doer,
		logger:  logger,
	}
}

// Verify never fails. Transport errors, bad responses, timeouts and panics all
// degrade to an error outcome with distance 1.0.
func (c *Client) Verify(ctx context.Context, selfie, idPhoto []byte) (result verification.FaceMatchResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "face match panicked",
				"request_id", requestcontext.RequestID(ctx),
				"panic", r,
			)
			result = verification.FaceFailure(verification.FaceError)
		}
	}()

	resp, err := c.call(ctx, selfie, idPhoto)
	if err != nil {
		c.logger.ErrorContext(ctx, "face match error",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return verification.FaceFailure(verification.FaceError)
	}
	if resp.Error != "" {
		if noFace(resp.Error) {
			c.logger.InfoContext(ctx, "face not detected",
				"request_id", requestcontext.RequestID(ctx),
				"detail", resp.Error,
			)
			return verification.FaceFailure(verification.FaceNotDetected)
		}
		c.logger.ErrorContext(ctx, "face match service error",
			"request_id", requestcontext.RequestID(ctx),
			"detail", resp.Error,
		)
		return verification.FaceFailure(verification.FaceError)
	}

	outcome := verification.FaceNotMatched
	if resp.Verified {
		outcome = verification.FaceMatched
	}
	return verification.FaceMatchResult{Outcome: outcome, Verified: resp.Verified, Distance: resp.Distance}
}

func (c *Client) call(ctx context.Context, selfie, idPhoto []byte) (*verifyResponse, error) {
	body, err := json.Marshal(verifyRequest{
		Image1:         dataURI(selfie),
		Image2:         dataURI(idPhoto),
		DistanceMetric: "cosine",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post verify: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out verifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", res.StatusCode, err)
	}
	if res.StatusCode >= http.StatusBadRequest && out.Error == "" {
		return nil, fmt.Errorf("face match service returned status %d", res.StatusCode)
	}
	return &out, nil
}

// noFace recognizes the detector's "no face found" answers.
func noFace(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "face could not be detected") || strings.Contains(msg, "no face")
}

func dataURI(img []byte) string {
	return "data:" + mimetype.Detect(img).String() + ";base64," + base64.StdEncoding.EncodeToString(img)
}
