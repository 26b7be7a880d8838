package domain

import (
	"fmt"
	"strings"
)

// cardinalLocator is the P digit of the PSSCCC location code. County
// subdivisions (1-9 for ninths of a county) are not supported; the whole
// area is always addressed.
const cardinalLocator = "0"

// minimalHeaderLen is the fixed length of "ZCZC-ORG-EEE-PSSCCC+TTTT-JJJHHMM".
const minimalHeaderLen = 32

// SameHeader is the decoded form of a SAME burst preamble per 47 CFR §11.31.
// Immutable once computed; the minimal rendering doubles as the cache key for
// generated announcement audio.
type SameHeader struct {
	Org        string // originator code: EAS, WXR, PEP, CIV
	EventCode  string // 3-letter event code
	Locator    string // 1-digit cardinal/subdivision locator
	StateCode  string // 2-digit state FIPS
	CountyCode string // 3-digit county or zone code
	PurgeTime  string // 4-digit TTTT field
	IssueTime  string // JJJHHMM: day-of-year + hour + minute, UTC
	CallSign   string
}

// EncodeHeader derives the SAME header for a normalized alert. Deterministic:
// identical inputs always yield byte-identical header strings.
func EncodeHeader(n NormalizedAlert, station StationConfig) SameHeader {
	onset := n.Onset.UTC()
	return SameHeader{
		Org:        station.Org,
		EventCode:  n.EventCode,
		Locator:    cardinalLocator,
		StateCode:  n.StateCode,
		CountyCode: fmt.Sprintf("%03d", n.CountyNumber),
		PurgeTime:  QuantizePurge(n.EndsOrExpires.Sub(n.Onset)),
		IssueTime:  fmt.Sprintf("%03d%02d%02d", onset.YearDay(), onset.Hour(), onset.Minute()),
		CallSign:   station.CallSign,
	}
}

// Minimal renders the header without the callsign segment:
// "ZCZC-ORG-EEE-PSSCCC+TTTT-JJJHHMM". Used as the audio cache key.
func (h SameHeader) Minimal() string {
	var b strings.Builder
	b.Grow(minimalHeaderLen)
	b.WriteString("ZCZC-")
	b.WriteString(h.Org)
	b.WriteString("-")
	b.WriteString(h.EventCode)
	b.WriteString("-")
	b.WriteString(h.Locator)
	b.WriteString(h.StateCode)
	b.WriteString(h.CountyCode)
	b.WriteString("+")
	b.WriteString(h.PurgeTime)
	b.WriteString("-")
	b.WriteString(h.IssueTime)
	return b.String()
}

// Full renders the complete over-the-air preamble: minimal header plus the
// trailing "-LLLLLLLL-" callsign segment.
func (h SameHeader) Full() string {
	return h.Minimal() + "-" + h.CallSign + "-"
}

// ParseMinimalHeader decodes a minimal header string by fixed character
// offsets. The callsign is not part of the minimal rendering and is left
// empty. Inverse of Minimal for well-formed headers.
func ParseMinimalHeader(s string) (SameHeader, error) {
	if len(s) != minimalHeaderLen {
		return SameHeader{}, fmt.Errorf("parse header: length %d, want %d", len(s), minimalHeaderLen)
	}
	if s[:5] != "ZCZC-" || s[8] != '-' || s[12] != '-' || s[19] != '+' || s[24] != '-' {
		return SameHeader{}, fmt.Errorf("parse header: malformed delimiters in %q", s)
	}
	return SameHeader{
		Org:        s[5:8],
		EventCode:  s[9:12],
		Locator:    s[13:14],
		StateCode:  s[14:16],
		CountyCode: s[16:19],
		PurgeTime:  s[20:24],
		IssueTime:  s[25:32],
	}, nil
}
