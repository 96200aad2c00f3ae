// Package streamapi reads stream metadata from the streaming API and keeps a
// classified view of it up to date.
package streamapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"streamchat/internal/config"
	"streamchat/internal/models"
)

var ErrStreamNotFound = errors.New("stream not found")

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: config.HTTPClientTimeout,
		},
	}
}

// Fetch returns the stream record for id. Both {"data": record} and a bare
// record are accepted.
func (c *Client) Fetch(ctx context.Context, id string) (*models.StreamRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("missing stream id")
	}
	var rec models.StreamRecord
	if err := c.getJSON(ctx, c.BaseURL+"/api/v1/streams/"+url.PathEscape(id), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out *models.StreamRecord) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode == http.StatusNotFound {
		return ErrStreamNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("stream api http %d: %s", res.StatusCode, string(body))
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if len(wrapped.Data) > 0 && !bytes.Equal(wrapped.Data, []byte("null")) {
		body = wrapped.Data
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode stream: %w", err)
	}
	if out.ID == "" {
		return ErrStreamNotFound
	}
	return nil
}
