package domain

import (
	"fmt"
	"strings"
)

// EventCodeEntry maps an NWS event description to its SAME event code.
// JSON field names match the upstream reference-table format.
type EventCodeEntry struct {
	Description string `json:"Event Description"`
	Code        string `json:"Event Code"`
	Class       string `json:"Event Level,omitempty"` // e.g. "Warning", "Watch", "Advisory"
}

// FIPSEntry maps a 2-letter state abbreviation to its 2-digit FIPS code.
type FIPSEntry struct {
	State string `json:"State"`
	Code  string `json:"State Code"`
}

// Tables holds the two read-only reference lookups the normalizer needs.
// Construct once at startup via NewTables; safe for concurrent readers.
type Tables struct {
	events map[string]EventCodeEntry // keyed by event description
	fips   map[string]string         // keyed by state abbreviation
}

// NewTables builds the lookup tables and validates the source data. Duplicate
// event descriptions mapping to different codes are a data error: the
// normalizer resolves by description, so an ambiguous table would silently
// pick an arbitrary code. Fail at load instead.
func NewTables(events []EventCodeEntry, fips []FIPSEntry) (*Tables, error) {
	t := &Tables{
		events: make(map[string]EventCodeEntry, len(events)),
		fips:   make(map[string]string, len(fips)),
	}
	for _, e := range events {
		if e.Description == "" || len(e.Code) != 3 {
			return nil, fmt.Errorf("invalid event-code entry %q -> %q", e.Description, e.Code)
		}
		if prev, ok := t.events[e.Description]; ok && prev.Code != e.Code {
			return nil, fmt.Errorf("duplicate event description %q maps to both %q and %q",
				e.Description, prev.Code, e.Code)
		}
		t.events[e.Description] = e
	}
	for _, f := range fips {
		state := strings.ToUpper(f.State)
		if len(state) != 2 || len(f.Code) != 2 {
			return nil, fmt.Errorf("invalid FIPS entry %q -> %q", f.State, f.Code)
		}
		if prev, ok := t.fips[state]; ok && prev != f.Code {
			return nil, fmt.Errorf("duplicate state %q maps to both %q and %q", f.State, prev, f.Code)
		}
		t.fips[state] = f.Code
	}
	return t, nil
}

// EventCode resolves an event description to its SAME entry.
func (t *Tables) EventCode(description string) (EventCodeEntry, bool) {
	e, ok := t.events[description]
	return e, ok
}

// StateCode resolves a 2-letter state abbreviation to its 2-digit FIPS code.
// Unknown states return "00": a geography gap should not suppress a hazard
// announcement, so the header degrades rather than the alert being dropped.
func (t *Tables) StateCode(abbr string) string {
	if code, ok := t.fips[strings.ToUpper(abbr)]; ok {
		return code
	}
	return "00"
}

// EventCount reports the number of loaded event-code entries.
func (t *Tables) EventCount() int { return len(t.events) }

// StateCount reports the number of loaded FIPS entries.
func (t *Tables) StateCount() int { return len(t.fips) }
