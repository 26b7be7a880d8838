// Package kafka publishes announcement audit events. The audit trail is an
// optional side channel; the announcement path never blocks on it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/eas-alert-service/internal/config"
	"github.com/couchcryptid/eas-alert-service/internal/domain"
)

// AuditEvent is the record published for each completed announcement.
type AuditEvent struct {
	AlertID       string    `json:"alert_id"`
	EventCode     string    `json:"event_code"`
	MinimalHeader string    `json:"minimal_header"`
	FullHeader    string    `json:"full_header"`
	MediaURL      string    `json:"media_url"`
	Devices       []string  `json:"devices"`
	AnnouncedAt   time.Time `json:"announced_at"`
}

// AuditPublisher produces announcement audit events to a Kafka topic.
type AuditPublisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAuditPublisher creates a Kafka producer for the configured audit topic.
func NewAuditPublisher(cfg *config.Config, logger *slog.Logger) *AuditPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AuditPublisher{writer: w, logger: logger}
}

// Publish serializes and publishes one audit event.
func (p *AuditPublisher) Publish(ctx context.Context, event AuditEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// RecordAnnouncement publishes the audit record for an announced alert.
// It implements pipeline.Auditor.
func (p *AuditPublisher) RecordAnnouncement(ctx context.Context, alert domain.NormalizedAlert, header domain.SameHeader, mediaURL string, devices []string) error {
	return p.Publish(ctx, NewAuditEvent(alert, header, mediaURL, devices, time.Now().UTC()))
}

func (p *AuditPublisher) Close() error {
	return p.writer.Close()
}

// NewAuditEvent builds the audit record for an announced alert.
func NewAuditEvent(alert domain.NormalizedAlert, header domain.SameHeader, mediaURL string, devices []string, announcedAt time.Time) AuditEvent {
	return AuditEvent{
		AlertID:       alert.ID,
		EventCode:     alert.EventCode,
		MinimalHeader: header.Minimal(),
		FullHeader:    header.Full(),
		MediaURL:      mediaURL,
		Devices:       devices,
		AnnouncedAt:   announcedAt,
	}
}

// serializeToMessage marshals an AuditEvent into a Kafka message keyed by
// alert ID.
func serializeToMessage(event AuditEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize audit event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.AlertID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_code", Value: []byte(event.EventCode)},
			{Key: "announced_at", Value: []byte(event.AnnouncedAt.Format(time.RFC3339))},
		},
	}, nil
}
