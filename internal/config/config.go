package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// ZoneConfig identifies one monitored forecast zone.
type ZoneConfig struct {
	State  string `yaml:"state"`            // 2-letter abbreviation
	Zone   string `yaml:"zone"`             // 1-3 digit forecast zone number
	County string `yaml:"county,omitempty"` // optional 1-3 digit county number
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	NWSBaseURL   string
	NWSTimeout   time.Duration
	Zones        []ZoneConfig
	SameOrg      string
	SameCallSign string

	PollInterval       time.Duration
	MaxAlerts          int
	IncludeDescription bool
	AnnouncementDelay  time.Duration

	MediaBaseURL   string
	MediaEndpoints []string
	MediaTimeout   time.Duration

	AudioBaseURL string
	AudioTimeout time.Duration

	LedgerPath      string
	LedgerRetention time.Duration

	RefTableDir  string
	SameTableURL string
	FIPSTableURL string

	// Kafka audit publishing (feature-flagged via KAFKA_AUDIT_TOPIC).
	KafkaBrokers    []string
	KafkaAuditTopic string
	AuditEnabled    bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	pollInterval, err := parseDuration("POLL_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	announcementDelay, err := parseDuration("ANNOUNCEMENT_DELAY", "2s")
	if err != nil {
		return nil, err
	}
	nwsTimeout, err := parseDuration("NWS_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	mediaTimeout, err := parseDuration("MEDIA_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	audioTimeout, err := parseDuration("AUDIO_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	ledgerRetention, err := parseDuration("LEDGER_RETENTION", "168h")
	if err != nil {
		return nil, err
	}

	zones, err := loadZoneConfig()
	if err != nil {
		return nil, err
	}

	auditTopic := os.Getenv("KAFKA_AUDIT_TOPIC")

	cfg := &Config{
		NWSBaseURL:   sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSTimeout:   nwsTimeout,
		Zones:        zones,
		SameOrg:      sharedcfg.EnvOrDefault("SAME_ORG", "EAS"),
		SameCallSign: os.Getenv("SAME_CALLSIGN"),

		PollInterval:       pollInterval,
		MaxAlerts:          parsePositiveInt("MAX_ALERTS", 25),
		IncludeDescription: os.Getenv("INCLUDE_DESCRIPTION") == "true",
		AnnouncementDelay:  announcementDelay,

		MediaBaseURL:   os.Getenv("MEDIA_BASE_URL"),
		MediaEndpoints: splitList(os.Getenv("MEDIA_ENDPOINTS")),
		MediaTimeout:   mediaTimeout,

		AudioBaseURL: os.Getenv("AUDIO_BASE_URL"),
		AudioTimeout: audioTimeout,

		LedgerPath:      sharedcfg.EnvOrDefault("LEDGER_PATH", "data/announced_alerts.json"),
		LedgerRetention: ledgerRetention,

		RefTableDir:  sharedcfg.EnvOrDefault("REF_TABLE_DIR", "data/reftables"),
		SameTableURL: os.Getenv("SAME_TABLE_URL"),
		FIPSTableURL: os.Getenv("FIPS_TABLE_URL"),

		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAuditTopic: auditTopic,
		AuditEnabled:    auditTopic != "",

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.SameCallSign == "" {
		return nil, errors.New("SAME_CALLSIGN is required")
	}
	if len(cfg.SameCallSign) > 8 {
		return nil, errors.New("SAME_CALLSIGN must be at most 8 characters")
	}
	if len(cfg.Zones) == 0 {
		return nil, errors.New("ZONE_STATE and ZONE_ID (or ZONES_FILE) are required")
	}
	if cfg.MediaBaseURL == "" {
		return nil, errors.New("MEDIA_BASE_URL is required")
	}
	if len(cfg.MediaEndpoints) == 0 {
		return nil, errors.New("MEDIA_ENDPOINTS is required")
	}
	if cfg.AudioBaseURL == "" {
		return nil, errors.New("AUDIO_BASE_URL is required")
	}
	if cfg.AuditEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_AUDIT_TOPIC is set but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

// loadZoneConfig reads zones from the optional ZONES_FILE, falling back to the
// single-zone ZONE_STATE / ZONE_ID / COUNTY_ID variables.
func loadZoneConfig() ([]ZoneConfig, error) {
	if path := os.Getenv("ZONES_FILE"); path != "" {
		zones, err := LoadZonesFile(path)
		if err != nil {
			return nil, fmt.Errorf("load ZONES_FILE: %w", err)
		}
		return zones, nil
	}

	state := os.Getenv("ZONE_STATE")
	zone := os.Getenv("ZONE_ID")
	if state == "" || zone == "" {
		return nil, nil
	}
	return []ZoneConfig{{
		State:  strings.ToUpper(state),
		Zone:   zone,
		County: os.Getenv("COUNTY_ID"),
	}}, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
