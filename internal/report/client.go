// Package report submits moderation reports to the chat service over HTTP.
// It is the fallback path used when the socket does not answer in time.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"streamchat/internal/config"
	"streamchat/internal/models"
)

// Result is the body of a successful report submission.
type Result struct {
	ReportID string `json:"reportId"`
	Message  string `json:"message"`
}

// APIError is returned for non-2xx responses. Message is the server's
// "message" field when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("report api http %d: %s", e.StatusCode, e.Message)
}

// Client posts reports to {BaseURL}/api/v1/chat/report/{streamId}.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for the chat service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: config.HTTPClientTimeout,
		},
	}
}

// Submit sends req for streamID, authenticated with token.
func (c *Client) Submit(ctx context.Context, token, streamID string, req models.ReportRequest) (*Result, error) {
	if streamID == "" {
		return nil, fmt.Errorf("missing stream id")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	endpoint := c.BaseURL + "/api/v1/chat/report/" + url.PathEscape(streamID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	res, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{StatusCode: res.StatusCode, Message: errorMessage(raw, res.Status)}
	}

	var out Result
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}
	return &out, nil
}

func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fallback
}
