package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"docverify/e2e/fixtures"
)

// TestContext carries the HTTP client and the last response across steps.
type TestContext struct {
	BaseURL    string
	AdminToken string
	ClientIP   string

	client       *http.Client
	lastStatus   int
	lastBody     []byte
	lastResponse map[string]any
}

// NewTestContext reads DOCVERIFY_E2E_URL and DOCVERIFY_ADMIN_TOKEN.
func NewTestContext() *TestContext {
	base := os.Getenv("DOCVERIFY_E2E_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		BaseURL:    base,
		AdminToken: os.Getenv("DOCVERIFY_ADMIN_TOKEN"),
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.ClientIP = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastResponse = nil
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

// PostMultipart submits fields and files as multipart/form-data.
func (tc *TestContext) PostMultipart(path string, fields map[string]string, files []fixtures.File) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		h.Set("Content-Type", f.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.Data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	// Only honoured when the server lists the runner in TRUSTED_PROXIES.
	if tc.ClientIP != "" {
		req.Header.Set("X-Forwarded-For", tc.ClientIP)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastBody = body
	tc.lastResponse = nil
	var parsed map[string]any
	if json.Unmarshal(body, &parsed) == nil {
		tc.lastResponse = parsed
	}
	return nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := tc.lastResponse[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

func (tc *TestContext) GetAdminToken() string {
	return tc.AdminToken
}

func (tc *TestContext) SetClientIP(ip string) {
	tc.ClientIP = ip
}
