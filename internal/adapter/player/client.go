// Package player is the HTTP client for the media bridge that fronts the
// household output devices. It satisfies the sequencer's Player interface.
package player

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client issues play and state commands against the media bridge API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a media bridge client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type playRequest struct {
	URL string `json:"url"`
}

type playerState struct {
	State string `json:"state"`
}

// Play instructs one device to play the media at mediaURL.
func (c *Client) Play(ctx context.Context, deviceID, mediaURL string) error {
	body, err := json.Marshal(playRequest{URL: mediaURL})
	if err != nil {
		return fmt.Errorf("encode play request: %w", err)
	}

	u := fmt.Sprintf("%s/players/%s/play", c.baseURL, url.PathEscape(deviceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("play on %s: %w", deviceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("play on %s returned status %d", deviceID, resp.StatusCode)
	}
	return nil
}

// IsIdle reports whether the device is not currently playing.
func (c *Client) IsIdle(ctx context.Context, deviceID string) (bool, error) {
	u := fmt.Sprintf("%s/players/%s", c.baseURL, url.PathEscape(deviceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("state of %s: %w", deviceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("state of %s returned status %d", deviceID, resp.StatusCode)
	}

	var s playerState
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return false, fmt.Errorf("decode state of %s: %w", deviceID, err)
	}
	return s.State != "playing", nil
}
