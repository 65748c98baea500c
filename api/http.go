package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/NextMind-AI/dashsync/metrics"
	"github.com/rs/zerolog/log"
)

const (
	HeaderOrganizationID = "x-organization-id"
	HeaderBranchID       = "x-branch-id"
)

// Error is returned for non-2xx responses.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return e.Message
}

type callOptions struct {
	requireAuth bool
}

type CallOption func(*callOptions)

// WithoutAuth skips the Authorization header.
func WithoutAuth() CallOption {
	return func(o *callOptions) {
		o.requireAuth = false
	}
}

// Call issues a JSON request against path and decodes the response into out
// when out is non-nil.
func (c *Client) Call(ctx context.Context, method, path string, body any, out any, opts ...CallOption) error {
	options := callOptions{requireAuth: true}
	for _, opt := range opts {
		opt(&options)
	}

	respBody, err := c.sendRequest(ctx, method, c.baseURL+path, body, options)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) sendRequest(ctx context.Context, method, url string, body any, options callOptions) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req, body != nil, options)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRequest(method, "transport_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordRequest(method, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if !isSuccessStatusCode(resp.StatusCode) {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: errorMessage(responseBody)}
		log.Debug().
			Str("method", method).
			Str("url", url).
			Int("status", resp.StatusCode).
			Str("error", apiErr.Message).
			Msg("Backend request failed")
		return nil, apiErr
	}

	return responseBody, nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool, options callOptions) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	tenant := c.tenant.Tenant()
	if tenant.OrganizationID != "" {
		req.Header.Set(HeaderOrganizationID, tenant.OrganizationID)
	}
	if tenant.BranchID != "" {
		req.Header.Set(HeaderBranchID, tenant.BranchID)
	}
	if options.requireAuth && tenant.Token != "" {
		req.Header.Set("Authorization", "Bearer "+tenant.Token)
	}
}

func isSuccessStatusCode(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// errorMessage extracts a human-readable message from an error body. The
// backend uses either {"message": ...} or {"error": ...}.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	switch e := payload.Error.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	return ""
}
