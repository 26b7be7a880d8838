// Package nws fetches active weather alerts from the api.weather.gov zone
// feed and maps them onto domain alert records.
package nws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/eas-alert-service/internal/domain"
)

const userAgent = "eas-alert-service/1.0 (+https://github.com/couchcryptid/eas-alert-service)"

// ErrZoneNotFound marks a zone or county identifier the API does not know.
var ErrZoneNotFound = errors.New("zone does not exist")

// Client polls the active-alerts feed for one compound zone identifier.
type Client struct {
	baseURL    string
	feedID     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client for the given zone feed ID (e.g.
// "TXZ019,TXC021" as produced by domain.FeedID).
func NewClient(baseURL, feedID string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		feedID:  feedID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FeedID returns the compound zone identifier this client polls.
func (c *Client) FeedID() string { return c.feedID }

// FetchActive retrieves the currently active alerts for the feed's zone,
// newest alert ID first.
func (c *Client) FetchActive(ctx context.Context) ([]domain.AlertRecord, error) {
	u := fmt.Sprintf("%s/alerts/active?zone=%s", c.baseURL, c.feedID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch alerts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alert feed returned status %d", resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode alert feed: %w", err)
	}

	alerts := make([]domain.AlertRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		alerts = append(alerts, c.mapFeature(f))
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID > alerts[j].ID })
	return alerts, nil
}

// ValidateFeed checks every identifier in the compound feed ID against the
// API. An unknown identifier returns ErrZoneNotFound; transport failures come
// back as ordinary errors so callers can treat them as transient.
func (c *Client) ValidateFeed(ctx context.Context) error {
	for _, zoneID := range strings.Split(c.feedID, ",") {
		if err := c.ValidateZone(ctx, zoneID); err != nil {
			return err
		}
	}
	return nil
}

// ValidateZone checks a zone or county identifier against the API before the
// service starts polling with it.
func (c *Client) ValidateZone(ctx context.Context, zoneID string) error {
	u := fmt.Sprintf("%s/alerts/active/zone/%s", c.baseURL, zoneID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("validate zone %s: %w", zoneID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("zone %s: %w", zoneID, ErrZoneNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zone check for %s returned status %d", zoneID, resp.StatusCode)
	}
	return nil
}

// featureCollection mirrors the GeoJSON envelope of the active-alerts feed.
// Only the properties the encoder consumes are decoded.
type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties featureProperties `json:"properties"`
}

type featureProperties struct {
	ID          string `json:"id"`
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Certainty   string `json:"certainty"`
	Urgency     string `json:"urgency"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
	AreaDesc    string `json:"areaDesc"`
	Sent        string `json:"sent"`
	Onset       string `json:"onset"`
	Ends        string `json:"ends"`
	Expires     string `json:"expires"`
}

// mapFeature converts one feed feature into an AlertRecord. The feed reports
// the issuing office in the headline after " by "; the spoken title drops it.
// "ends" is authoritative for the effective end; "expires" only covers the
// message's own lifetime and is used when "ends" is absent.
func (c *Client) mapFeature(f feature) domain.AlertRecord {
	p := f.Properties

	spoken := p.Headline
	if i := strings.Index(spoken, " by "); i >= 0 {
		spoken = spoken[:i]
	}

	ends := p.Ends
	if ends == "" {
		ends = p.Expires
	}

	return domain.AlertRecord{
		ID:             p.ID,
		Event:          p.Event,
		Severity:       domain.Severity(p.Severity),
		ZoneCompoundID: c.feedID,
		Onset:          c.parseTime(p.ID, "onset", p.Onset),
		EndsOrExpires:  c.parseTime(p.ID, "ends", ends),
		Title:          p.Headline,
		SpokenTitle:    spoken,
		Description:    p.Description,
		Instruction:    p.Instruction,
		Area:           p.AreaDesc,
		Certainty:      p.Certainty,
		Urgency:        p.Urgency,
		Sent:           p.Sent,
	}
}

// parseTime decodes an RFC 3339 feed timestamp. A missing or malformed value
// maps to the zero time; normalization rejects the alert downstream.
func (c *Client) parseTime(alertID, field, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		c.logger.Warn("unparseable alert timestamp",
			"alert_id", alertID, "field", field, "value", value, "error", err)
		return time.Time{}
	}
	return t
}
