package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RejectReason classifies why an alert was excluded from announcement.
type RejectReason string

const (
	ReasonSeverityExcluded  RejectReason = "severity_excluded"
	ReasonMalformedZone     RejectReason = "malformed_zone"
	ReasonUnknownEventCode  RejectReason = "unknown_event_code"
	ReasonMissingTimestamps RejectReason = "missing_timestamps"
)

// RejectError marks an alert as skipped, not failed. Rejections never abort
// the batch; callers log and move on.
type RejectError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("alert rejected (%s): %s", e.Reason, e.Detail)
}

func reject(reason RejectReason, format string, args ...any) error {
	return &RejectError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// NoTitleFallback is spoken when an alert carries neither a spoken title nor
// a headline.
const NoTitleFallback = "No Title for this Alert!"

// NormalizeOptions tune the normalizer's spoken-text policy.
type NormalizeOptions struct {
	// IncludeDescription appends the alert description's WHAT clause to the
	// spoken text when one is present.
	IncludeDescription bool
}

// Normalize validates an alert record and resolves the codes a SAME header
// needs. Pure over its inputs and the two read-only tables; rejections come
// back as *RejectError.
func Normalize(rec AlertRecord, tables *Tables, opts NormalizeOptions) (NormalizedAlert, error) {
	if !rec.Severity.Announceable() {
		return NormalizedAlert{}, reject(ReasonSeverityExcluded, "severity %q", rec.Severity)
	}

	tokens := strings.Split(rec.ZoneCompoundID, ",")
	zoneState, zoneNumber, err := parseGeoToken(tokens[0], 'Z')
	if err != nil {
		return NormalizedAlert{}, reject(ReasonMalformedZone, "zone token %q: %v", tokens[0], err)
	}

	// The county element is optional; when absent, the county code defaults
	// to "000" in the zone's state.
	countyState, countyNumber := zoneState, 0
	if len(tokens) > 1 && tokens[1] != "" {
		countyState, countyNumber, err = parseGeoToken(tokens[1], 'C')
		if err != nil {
			return NormalizedAlert{}, reject(ReasonMalformedZone, "county token %q: %v", tokens[1], err)
		}
	}

	entry, ok := tables.EventCode(rec.Event)
	if !ok {
		return NormalizedAlert{}, reject(ReasonUnknownEventCode, "event %q not in SAME table", rec.Event)
	}

	if rec.Onset.IsZero() || rec.EndsOrExpires.IsZero() {
		return NormalizedAlert{}, reject(ReasonMissingTimestamps, "onset=%v ends=%v", rec.Onset, rec.EndsOrExpires)
	}

	return NormalizedAlert{
		ID:            rec.ID,
		EventCode:     entry.Code,
		EventClass:    entry.Class,
		ZoneState:     zoneState,
		ZoneNumber:    zoneNumber,
		CountyState:   countyState,
		CountyNumber:  countyNumber,
		StateCode:     tables.StateCode(zoneState),
		Onset:         rec.Onset,
		EndsOrExpires: rec.EndsOrExpires,
		SpokenText:    resolveSpokenText(rec, opts),
		ProcessedAt:   clock.Now(),
	}, nil
}

// parseGeoToken splits a zone or county identifier like "TXZ019" into its
// state abbreviation and numeric code. typeLetter is 'Z' for forecast zones
// and 'C' for counties. Leading zeros are discarded; the number is re-padded
// during header assembly.
func parseGeoToken(token string, typeLetter byte) (string, int, error) {
	if len(token) < 3 {
		return "", 0, fmt.Errorf("shorter than 3 characters")
	}
	state := token[:2]
	rest := token[2:]
	if rest[0] == typeLetter {
		rest = rest[1:]
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("non-numeric code %q", rest)
	}
	return state, n, nil
}

// resolveSpokenText picks the announcement text: spoken title, then headline
// title, then a literal placeholder. With IncludeDescription set, the WHAT
// clause extracted from the description is appended.
func resolveSpokenText(rec AlertRecord, opts NormalizeOptions) string {
	text := rec.SpokenTitle
	if text == "" {
		text = rec.Title
	}
	if text == "" {
		text = NoTitleFallback
	}
	if opts.IncludeDescription {
		if what := ExtractWhatClause(rec.Description); what != "" {
			text = text + " " + what
		}
	}
	return text
}

// ExtractWhatClause pulls the "* WHAT..." section out of an NWS alert
// description: everything from the WHAT marker to the next "* " section
// marker (or end of text), with bullets stripped and whitespace collapsed.
func ExtractWhatClause(description string) string {
	idx := strings.Index(description, "* WHAT")
	if idx < 0 {
		return ""
	}
	rest := description[idx+len("* WHAT"):]
	rest = strings.TrimLeft(rest, ".")
	if end := strings.Index(rest, "* "); end >= 0 {
		rest = rest[:end]
	}
	return strings.Join(strings.Fields(rest), " ")
}
