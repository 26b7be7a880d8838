package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/eas-alert-service/internal/domain"
)

func TestNewAuditEvent(t *testing.T) {
	alert := domain.NormalizedAlert{
		ID:        "urn:alert:1",
		EventCode: "TOR",
	}
	header := domain.SameHeader{
		Org:        "EAS",
		EventCode:  "TOR",
		Locator:    "0",
		StateCode:  "48",
		CountyCode: "021",
		PurgeTime:  "0045",
		IssueTime:  "1221400",
		CallSign:   "KXYZ/HA",
	}
	announcedAt := time.Date(2024, 5, 1, 14, 2, 0, 0, time.UTC)

	event := NewAuditEvent(alert, header, "http://audio/out/1221400.wav",
		[]string{"media_player.kitchen"}, announcedAt)

	assert.Equal(t, "urn:alert:1", event.AlertID)
	assert.Equal(t, "TOR", event.EventCode)
	assert.Equal(t, "ZCZC-EAS-TOR-048021+0045-1221400", event.MinimalHeader)
	assert.Equal(t, "ZCZC-EAS-TOR-048021+0045-1221400-KXYZ/HA-", event.FullHeader)
	assert.Equal(t, []string{"media_player.kitchen"}, event.Devices)
	assert.Equal(t, announcedAt, event.AnnouncedAt)
}

func TestSerializeToMessage(t *testing.T) {
	announcedAt := time.Date(2024, 5, 1, 14, 2, 0, 0, time.UTC)
	event := AuditEvent{
		AlertID:       "urn:alert:1",
		EventCode:     "TOR",
		MinimalHeader: "ZCZC-EAS-TOR-048021+0045-1221400",
		MediaURL:      "http://audio/out/1221400.wav",
		Devices:       []string{"media_player.kitchen"},
		AnnouncedAt:   announcedAt,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("urn:alert:1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"event_code":"TOR"`)
	assert.Contains(t, string(msg.Value), `"minimal_header":"ZCZC-EAS-TOR-048021+0045-1221400"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_code", msg.Headers[0].Key)
	assert.Equal(t, []byte("TOR"), msg.Headers[0].Value)
	assert.Equal(t, "announced_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(announcedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}
