package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// defaultMaxBodyBytes caps how much of a fetched page is kept.
//
// Research sources end up inside an LLM prompt, so there is no value in
// hauling megabytes of HTML into memory.
const defaultMaxBodyBytes = 256 * 1024

// HTTPTool fetches web resources for the researcher.
//
// It supports GET and POST and returns the response status, headers,
// and body. The body is truncated at a configurable byte limit.
//
// Input parameters:
//   - url: target URL (required)
//   - method: "GET" or "POST" (defaults to "GET")
//   - headers: optional map of request headers
//   - body: optional request body string (for POST)
//
// Output:
//   - status_code: HTTP status code
//   - headers: response headers as a map
//   - body: response body as a string, possibly truncated
//   - truncated: true when the body hit the byte limit
type HTTPTool struct {
	client       *http.Client
	maxBodyBytes int64
}

// NewHTTPTool creates an HTTP fetch tool with default settings.
//
// Timeouts are controlled through the context passed to Call.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{
		client:       &http.Client{},
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// NewHTTPToolWithLimit creates an HTTP fetch tool with a custom body
// size limit in bytes. A limit <= 0 falls back to the default.
func NewHTTPToolWithLimit(maxBodyBytes int64) *HTTPTool {
	t := NewHTTPTool()
	if maxBodyBytes > 0 {
		t.maxBodyBytes = maxBodyBytes
	}
	return t
}

// Name returns the tool identifier.
func (h *HTTPTool) Name() string {
	return "fetch_url"
}

// Call executes an HTTP request with the provided parameters.
func (h *HTTPTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	urlStr, ok := input["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("url parameter required (string)")
	}

	method := "GET"
	if m, ok := input["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != "GET" && method != "POST" {
		return nil, fmt.Errorf("unsupported HTTP method: %s (supported: GET, POST)", method)
	}

	var body io.Reader
	if bodyStr, ok := input["body"].(string); ok && bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if headers, ok := input["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			if valueStr, ok := value.(string); ok {
				req.Header.Set(key, valueStr)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read one byte past the limit so truncation is detectable.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	truncated := false
	if int64(len(respBody)) > h.maxBodyBytes {
		respBody = respBody[:h.maxBodyBytes]
		truncated = true
	}

	respHeaders := make(map[string]interface{})
	for key, values := range resp.Header {
		if len(values) == 1 {
			respHeaders[key] = values[0]
		} else {
			respHeaders[key] = values
		}
	}

	return map[string]interface{}{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        string(respBody),
		"truncated":   truncated,
	}, nil
}
