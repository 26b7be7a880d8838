// Command genheader encodes a SAME header for a hypothetical alert, useful
// for verifying station config and reference tables before deploying.
//
// Usage:
//
//	go run ./cmd/genheader \
//	  -tables data/reftables \
//	  -org EAS -callsign KXYZ/HA \
//	  -event "Tornado Warning" \
//	  -zone TXZ019,TXC021 \
//	  -onset 2024-05-01T14:00:00Z \
//	  -ends 2024-05-01T14:45:00Z
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/eas-alert-service/internal/adapter/reftable"
	"github.com/couchcryptid/eas-alert-service/internal/domain"
)

func main() {
	tableDir := flag.String("tables", "data/reftables", "reference table cache directory")
	org := flag.String("org", "EAS", "originator code (EAS, WXR, PEP, CIV)")
	callsign := flag.String("callsign", "", "station callsign, up to 8 characters")
	event := flag.String("event", "", "NWS event description, e.g. \"Tornado Warning\"")
	zone := flag.String("zone", "", "compound zone ID, e.g. TXZ019,TXC021")
	onsetStr := flag.String("onset", "", "alert onset, RFC 3339")
	endsStr := flag.String("ends", "", "alert end, RFC 3339")
	flag.Parse()

	if *callsign == "" || *event == "" || *zone == "" || *onsetStr == "" || *endsStr == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*tableDir, *org, *callsign, *event, *zone, *onsetStr, *endsStr); code != 0 {
		os.Exit(code)
	}
}

func run(tableDir, org, callsign, event, zone, onsetStr, endsStr string) int {
	onset, err := time.Parse(time.RFC3339, onsetStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -onset: %v\n", err)
		return 1
	}
	ends, err := time.Parse(time.RFC3339, endsStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -ends: %v\n", err)
		return 1
	}

	station := domain.StationConfig{Org: org, CallSign: callsign}
	if err := station.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid station: %v\n", err)
		return 1
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	tables, err := reftable.NewProvider(tableDir, "", "", quiet).Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load tables: %v\n", err)
		return 1
	}

	normalized, err := domain.Normalize(domain.AlertRecord{
		ID:             "genheader",
		Event:          event,
		Severity:       domain.SeveritySevere,
		ZoneCompoundID: zone,
		Onset:          onset,
		EndsOrExpires:  ends,
	}, tables, domain.NormalizeOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "normalize: %v\n", err)
		return 1
	}

	header := domain.EncodeHeader(normalized, station)
	fmt.Printf("event code: %s (%s)\n", normalized.EventCode, normalized.EventClass)
	fmt.Printf("state fips: %s\n", normalized.StateCode)
	fmt.Printf("minimal:    %s\n", header.Minimal())
	fmt.Printf("full:       %s\n", header.Full())
	return 0
}
