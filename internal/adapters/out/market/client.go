// Package market implements the outbound adapters for the marketplace
// partner API: the order gateway, the buyer chat messenger and the stock
// catalog. All failures surface as typed gateway errors so callers can tell
// a remote refusal from a transient outage.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fulfillment/internal/core/ports"
)

const defaultTimeout = 30 * time.Second

// Client is the low-level HTTP client for the partner API. It owns
// authentication headers, error classification and JSON plumbing; the
// gateway, messenger and catalog adapters share one instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	campaignID int64
	businessID int64
}

// NewClient creates a partner API client. baseURL carries no trailing slash;
// a zero timeout selects the default.
func NewClient(baseURL, apiKey string, campaignID, businessID int64, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		campaignID: campaignID,
		businessID: businessID,
	}
}

// apiError is the error envelope the partner API returns on 4xx/5xx.
type apiError struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// getJSON issues a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, "", nil, out)
}

// putJSON issues a PUT with a JSON body and decodes the response into out.
// out may be nil when the response body is irrelevant.
func (c *Client) putJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPut, path, nil, "application/json", bytes.NewReader(payload), out)
}

// postJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, query url.Values, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, query, "application/json", bytes.NewReader(payload), out)
}

// postForm issues a POST with an urlencoded form body. The chat message
// endpoint is the one place the API wants a form instead of JSON.
func (c *Client) postForm(ctx context.Context, path string, query, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, query,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values,
	contentType string, body io.Reader, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ports.GatewayError{
			Kind:    ports.GatewayUnavailable,
			Message: fmt.Sprintf("%s %s: %v", method, path, err),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ports.GatewayError{
			Kind:       ports.GatewayUnavailable,
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("%s %s: read response: %v", method, path, err),
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return classify(method, path, resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response of %s %s: %w", method, path, err)
	}
	return nil
}

// classify maps an HTTP failure to the typed gateway error. 5xx and 429 are
// transient; other 4xx responses are refusals carrying the first error code
// from the response envelope.
func classify(method, path string, status int, raw []byte) *ports.GatewayError {
	var envelope apiError
	_ = json.Unmarshal(raw, &envelope)

	code := ports.CodeUnknown
	message := strings.TrimSpace(string(raw))
	if len(envelope.Errors) > 0 {
		if envelope.Errors[0].Code != "" {
			code = envelope.Errors[0].Code
		}
		if envelope.Errors[0].Message != "" {
			message = envelope.Errors[0].Message
		}
	}

	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return &ports.GatewayError{
			Kind:       ports.GatewayUnavailable,
			Code:       code,
			HTTPStatus: status,
			Message:    fmt.Sprintf("%s %s: %s", method, path, message),
		}
	}

	return &ports.GatewayError{
		Kind:       ports.GatewayRejected,
		Code:       code,
		HTTPStatus: status,
		Message:    fmt.Sprintf("%s %s: %s", method, path, message),
	}
}
