// Package audio is the HTTP client for the synthesis service that renders
// SAME bursts and speech into playable announcement files.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/eas-alert-service/internal/domain"
)

// Client implements domain.AudioSynthesizer over the synthesis service API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a synthesis client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// HeaderBurst encodes the full SAME header, three bursts plus the attention
// tone, as one clip.
func (c *Client) HeaderBurst(ctx context.Context, fullHeader string) (domain.AudioClip, error) {
	return c.postClip(ctx, "/same/header", map[string]string{"header": fullHeader})
}

// EndOfMessage encodes the NNNN end-of-message bursts.
func (c *Client) EndOfMessage(ctx context.Context) (domain.AudioClip, error) {
	return c.postClip(ctx, "/same/eom", map[string]string{})
}

// Speech synthesizes the spoken alert text.
func (c *Client) Speech(ctx context.Context, text string) (domain.AudioClip, error) {
	return c.postClip(ctx, "/tts", map[string]string{"text": text})
}

// postClip posts a JSON request and reads back raw audio. The clip duration
// comes from the X-Audio-Duration-Ms response header.
func (c *Client) postClip(ctx context.Context, path string, payload map[string]string) (domain.AudioClip, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("synthesize %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.AudioClip{}, fmt.Errorf("synthesize %s returned status %d", path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("read audio from %s: %w", path, err)
	}
	return domain.AudioClip{
		Data:     data,
		Duration: durationHeader(resp),
	}, nil
}

type renderResponse struct {
	MediaURL   string `json:"media_url"`
	DurationMs int64  `json:"duration_ms"`
}

// Render concatenates clips into one playable file keyed by cacheKey, so a
// repeated alert reuses the file rendered for its first announcement.
func (c *Client) Render(ctx context.Context, cacheKey string, clips ...domain.AudioClip) (domain.Announcement, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, clip := range clips {
		part, err := mw.CreateFormFile("clips", fmt.Sprintf("clip-%d", i))
		if err != nil {
			return domain.Announcement{}, fmt.Errorf("assemble render request: %w", err)
		}
		if _, err := part.Write(clip.Data); err != nil {
			return domain.Announcement{}, fmt.Errorf("assemble render request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return domain.Announcement{}, fmt.Errorf("assemble render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", &buf)
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Cache-Key", cacheKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("render announcement: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Announcement{}, fmt.Errorf("render returned status %d", resp.StatusCode)
	}

	var r renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.Announcement{}, fmt.Errorf("decode render response: %w", err)
	}
	if r.MediaURL == "" {
		return domain.Announcement{}, fmt.Errorf("render response missing media_url")
	}
	return domain.Announcement{
		MediaURL: r.MediaURL,
		Duration: time.Duration(r.DurationMs) * time.Millisecond,
	}, nil
}

func durationHeader(resp *http.Response) time.Duration {
	ms, err := strconv.ParseInt(resp.Header.Get("X-Audio-Duration-Ms"), 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
