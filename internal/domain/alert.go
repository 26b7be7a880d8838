package domain

import (
	"fmt"
	"time"
)

// Severity is the CAP severity level attached to an NWS alert.
type Severity string

const (
	SeverityUnknown  Severity = "Unknown"
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityExtreme  Severity = "Extreme"
)

// Announceable reports whether alerts of this severity are eligible for an
// EAS announcement. "Unknown" carries no hazard classification and is skipped.
func (s Severity) Announceable() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeveritySevere, SeverityExtreme:
		return true
	default:
		return false
	}
}

// AlertRecord is one hazard notification from the alert feed, reduced to the
// fields the encoder needs. Display-only feed fields (instruction, area,
// urgency, ...) ride along for the HTTP snapshot endpoint.
type AlertRecord struct {
	ID             string    `json:"id"`
	Event          string    `json:"event"`
	Severity       Severity  `json:"severity"`
	ZoneCompoundID string    `json:"zone_id"` // "TXZ019" or "TXZ019,TXC021"
	Onset          time.Time `json:"onset"`
	EndsOrExpires  time.Time `json:"ends_expires"`
	Title          string    `json:"title,omitempty"`
	SpokenTitle    string    `json:"spoken_title,omitempty"`
	Description    string    `json:"description,omitempty"`
	Instruction    string    `json:"instruction,omitempty"`
	Area           string    `json:"area,omitempty"`
	Certainty      string    `json:"certainty,omitempty"`
	Urgency        string    `json:"urgency,omitempty"`
	Sent           string    `json:"sent,omitempty"`
}

// NormalizedAlert is the validated, code-resolved form of an AlertRecord,
// ready for SAME header encoding.
type NormalizedAlert struct {
	ID            string
	EventCode     string // 3-letter SAME event code, e.g. "TOR"
	EventClass    string // warning / watch / advisory
	ZoneState     string // 2-letter state abbreviation from the zone token
	ZoneNumber    int
	CountyState   string
	CountyNumber  int
	StateCode     string // 2-digit FIPS code, "00" when unresolved
	Onset         time.Time
	EndsOrExpires time.Time
	SpokenText    string
	ProcessedAt   time.Time
}

// StationConfig identifies the announcing station in SAME headers.
type StationConfig struct {
	Org      string // EAS, WXR, PEP, or CIV
	CallSign string // up to 8 ASCII characters
}

// ValidOrgs are the originator codes permitted by 47 CFR §11.31.
var ValidOrgs = []string{"EAS", "WXR", "PEP", "CIV"}

// Validate checks the originator code and callsign length.
func (c StationConfig) Validate() error {
	ok := false
	for _, org := range ValidOrgs {
		if c.Org == org {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("invalid originator code %q (want one of EAS, WXR, PEP, CIV)", c.Org)
	}
	if c.CallSign == "" || len(c.CallSign) > 8 {
		return fmt.Errorf("callsign %q must be 1-8 characters", c.CallSign)
	}
	return nil
}

// FeedID builds the compound zone identifier used by the alert feed, e.g.
// "TXZ019,TXC021". Zone and county are 1-3 digit strings; the county is
// optional. Mirrors the identifier format of api.weather.gov zone feeds.
func FeedID(state, zone, county string) (string, error) {
	if len(state) != 2 {
		return "", fmt.Errorf("state %q must be a 2-letter abbreviation", state)
	}
	z, err := padGeoNumber(zone)
	if err != nil {
		return "", fmt.Errorf("invalid zone ID %q: %w", zone, err)
	}
	id := state + "Z" + z
	if county == "" {
		return id, nil
	}
	c, err := padGeoNumber(county)
	if err != nil {
		return "", fmt.Errorf("invalid county ID %q: %w", county, err)
	}
	return id + "," + state + "C" + c, nil
}

func padGeoNumber(s string) (string, error) {
	if len(s) < 1 || len(s) > 3 {
		return "", fmt.Errorf("must be 1-3 digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("must be 1-3 digits")
		}
	}
	for len(s) < 3 {
		s = "0" + s
	}
	return s, nil
}
