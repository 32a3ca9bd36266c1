// Package testutil provides common test utilities for handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MultipartFile is one file part of a multipart form.
type MultipartFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// NewMultipartRequest builds a multipart/form-data request from fields and files.
func NewMultipartRequest(t *testing.T, method, path string, fields map[string]string, files ...MultipartFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v), "failed to write field %s", k)
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Filename+`"`)
		if f.ContentType != "" {
			header.Set("Content-Type", f.ContentType)
		}
		part, err := mw.CreatePart(header)
		require.NoError(t, err, "failed to create part %s", f.Field)
		_, err = part.Write(f.Data)
		require.NoError(t, err, "failed to write part %s", f.Field)
	}
	require.NoError(t, mw.Close(), "failed to close multipart writer")

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// NewRequest creates a simple HTTP request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ReadBody reads the response body as bytes.
func ReadBody(t *testing.T, rr *httptest.ResponseRecorder) []byte {
	t.Helper()
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err, "failed to read response body")
	return body
}

// UnmarshalResponse unmarshals the response body into the target struct.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	body := ReadBody(t, rr)
	var result T
	require.NoError(t, json.Unmarshal(body, &result), "failed to unmarshal response")
	return &result
}

// UnmarshalErrorResponse unmarshals the response body as an error response.
func UnmarshalErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	body := ReadBody(t, rr)
	var result map[string]string
	require.NoError(t, json.Unmarshal(body, &result), "failed to unmarshal error response")
	return result
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertStatusAndError asserts both status code and error code.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	errResp := UnmarshalErrorResponse(t, rr)
	assert.Equal(t, expectedCode, errResp["error"], "unexpected error code")
}
