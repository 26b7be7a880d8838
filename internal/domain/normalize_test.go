package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := NewTables(
		[]EventCodeEntry{
			{Description: "Tornado Warning", Code: "TOR", Class: "Warning"},
			{Description: "Severe Thunderstorm Warning", Code: "SVR", Class: "Warning"},
			{Description: "Winter Storm Watch", Code: "WSA", Class: "Watch"},
		},
		[]FIPSEntry{
			{State: "TX", Code: "48"},
			{State: "IL", Code: "17"},
		},
	)
	require.NoError(t, err)
	return tables
}

func testAlertRecord() AlertRecord {
	return AlertRecord{
		ID:             "urn:test:1",
		Event:          "Tornado Warning",
		Severity:       SeveritySevere,
		ZoneCompoundID: "TXZ019,TXC021",
		Onset:          time.Date(2024, time.May, 1, 14, 0, 0, 0, time.UTC),
		EndsOrExpires:  time.Date(2024, time.May, 1, 14, 45, 0, 0, time.UTC),
		Title:          "Tornado Warning issued May 1 at 2:00PM CDT",
		SpokenTitle:    "Tornado Warning for San Saba County",
	}
}

func TestNormalize(t *testing.T) {
	tables := testTables(t)

	t.Run("zone and county resolution", func(t *testing.T) {
		n, err := Normalize(testAlertRecord(), tables, NormalizeOptions{})
		require.NoError(t, err)

		assert.Equal(t, "urn:test:1", n.ID)
		assert.Equal(t, "TOR", n.EventCode)
		assert.Equal(t, "Warning", n.EventClass)
		assert.Equal(t, "TX", n.ZoneState)
		assert.Equal(t, 19, n.ZoneNumber)
		assert.Equal(t, "TX", n.CountyState)
		assert.Equal(t, 21, n.CountyNumber)
		assert.Equal(t, "48", n.StateCode)
		assert.Equal(t, "Tornado Warning for San Saba County", n.SpokenText)
	})

	t.Run("missing county defaults", func(t *testing.T) {
		rec := testAlertRecord()
		rec.ZoneCompoundID = "ILZ015"

		n, err := Normalize(rec, tables, NormalizeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "IL", n.ZoneState)
		assert.Equal(t, 15, n.ZoneNumber)
		assert.Equal(t, "IL", n.CountyState)
		assert.Equal(t, 0, n.CountyNumber)
		assert.Equal(t, "17", n.StateCode)
	})

	t.Run("unknown state defaults to 00", func(t *testing.T) {
		rec := testAlertRecord()
		rec.ZoneCompoundID = "PRZ001"

		n, err := Normalize(rec, tables, NormalizeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "00", n.StateCode)
	})

	t.Run("severity gate", func(t *testing.T) {
		for _, sev := range []Severity{SeverityUnknown, Severity(""), Severity("severe")} {
			rec := testAlertRecord()
			rec.Severity = sev

			_, err := Normalize(rec, tables, NormalizeOptions{})
			assertRejected(t, err, ReasonSeverityExcluded)
		}
	})

	t.Run("malformed zone token", func(t *testing.T) {
		for _, zone := range []string{"", "TX", "TXZ0x9", "TXZ019,TC"} {
			rec := testAlertRecord()
			rec.ZoneCompoundID = zone

			_, err := Normalize(rec, tables, NormalizeOptions{})
			assertRejected(t, err, ReasonMalformedZone)
		}
	})

	t.Run("unknown event code", func(t *testing.T) {
		rec := testAlertRecord()
		rec.Event = "Volcano Warning"

		_, err := Normalize(rec, tables, NormalizeOptions{})
		assertRejected(t, err, ReasonUnknownEventCode)
	})

	t.Run("missing timestamps", func(t *testing.T) {
		rec := testAlertRecord()
		rec.EndsOrExpires = time.Time{}

		_, err := Normalize(rec, tables, NormalizeOptions{})
		assertRejected(t, err, ReasonMissingTimestamps)
	})

	t.Run("processed_at comes from the injected clock", func(t *testing.T) {
		frozen := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
		SetClock(clockwork.NewFakeClockAt(frozen))
		t.Cleanup(func() { SetClock(nil) })

		n, err := Normalize(testAlertRecord(), tables, NormalizeOptions{})
		require.NoError(t, err)
		assert.Equal(t, frozen, n.ProcessedAt)
	})
}

func assertRejected(t *testing.T, err error, reason RejectReason) {
	t.Helper()
	var rejected *RejectError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, reason, rejected.Reason)
}

func TestNormalize_SpokenTextFallback(t *testing.T) {
	tables := testTables(t)

	t.Run("falls back to title", func(t *testing.T) {
		rec := testAlertRecord()
		rec.SpokenTitle = ""

		n, err := Normalize(rec, tables, NormalizeOptions{})
		require.NoError(t, err)
		assert.Equal(t, rec.Title, n.SpokenText)
	})

	t.Run("falls back to placeholder", func(t *testing.T) {
		rec := testAlertRecord()
		rec.SpokenTitle = ""
		rec.Title = ""

		n, err := Normalize(rec, tables, NormalizeOptions{})
		require.NoError(t, err)
		assert.Equal(t, NoTitleFallback, n.SpokenText)
	})

	t.Run("appends WHAT clause when enabled", func(t *testing.T) {
		rec := testAlertRecord()
		rec.Description = "* WHAT...Damaging winds up to\n70 mph expected.\n\n* WHERE...San Saba County.\n"

		n, err := Normalize(rec, tables, NormalizeOptions{IncludeDescription: true})
		require.NoError(t, err)
		assert.Equal(t,
			"Tornado Warning for San Saba County Damaging winds up to 70 mph expected.",
			n.SpokenText)
	})

	t.Run("description ignored when disabled", func(t *testing.T) {
		rec := testAlertRecord()
		rec.Description = "* WHAT...Damaging winds.\n"

		n, err := Normalize(rec, tables, NormalizeOptions{})
		require.NoError(t, err)
		assert.Equal(t, rec.SpokenTitle, n.SpokenText)
	})
}

func TestExtractWhatClause(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    string
	}{
		{
			"clause before next marker",
			"* WHAT...Heavy snow. Total\naccumulations of 8 inches.\n\n* WHERE...Northern Cook County.",
			"Heavy snow. Total accumulations of 8 inches.",
		},
		{
			"clause at end of text",
			"Some preamble.\n* WHAT...Flash flooding of creeks.",
			"Flash flooding of creeks.",
		},
		{"no marker", "Flooding expected across the area.", ""},
		{"empty description", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractWhatClause(tt.description))
		})
	}
}

func TestNormalize_IsPure(t *testing.T) {
	tables := testTables(t)
	rec := testAlertRecord()

	a, err := Normalize(rec, tables, NormalizeOptions{})
	require.NoError(t, err)
	b, err := Normalize(rec, tables, NormalizeOptions{})
	require.NoError(t, err)

	a.ProcessedAt, b.ProcessedAt = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
}

func TestRejectErrorMessage(t *testing.T) {
	err := reject(ReasonMalformedZone, "zone token %q", "TX")
	assert.Contains(t, err.Error(), "malformed_zone")
	assert.Contains(t, err.Error(), `"TX"`)
	assert.False(t, errors.Is(err, errors.New("other")))
}
