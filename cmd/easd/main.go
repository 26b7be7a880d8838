package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	audioadapter "github.com/couchcryptid/eas-alert-service/internal/adapter/audio"
	httpadapter "github.com/couchcryptid/eas-alert-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/eas-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/eas-alert-service/internal/adapter/nws"
	playeradapter "github.com/couchcryptid/eas-alert-service/internal/adapter/player"
	"github.com/couchcryptid/eas-alert-service/internal/adapter/reftable"
	"github.com/couchcryptid/eas-alert-service/internal/config"
	"github.com/couchcryptid/eas-alert-service/internal/domain"
	"github.com/couchcryptid/eas-alert-service/internal/ledger"
	"github.com/couchcryptid/eas-alert-service/internal/observability"
	"github.com/couchcryptid/eas-alert-service/internal/pipeline"
	"github.com/couchcryptid/eas-alert-service/internal/sequencer"
)

func main() {
	// Local development convenience; the file is absent in deployment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	station := domain.StationConfig{Org: cfg.SameOrg, CallSign: cfg.SameCallSign}
	if err := station.Validate(); err != nil {
		logger.Error("invalid station config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, err := reftable.NewProvider(cfg.RefTableDir, cfg.SameTableURL, cfg.FIPSTableURL, logger).Load(ctx)
	if err != nil {
		logger.Error("failed to load reference tables", "error", err)
		os.Exit(1)
	}

	fetchers, err := buildFetchers(ctx, cfg, logger)
	if err != nil {
		logger.Error("invalid zone config", "error", err)
		os.Exit(1)
	}

	dedupe := ledger.Open(cfg.LedgerPath, cfg.LedgerRetention, logger)

	playerClient := playeradapter.NewClient(cfg.MediaBaseURL, cfg.MediaTimeout)
	seq := sequencer.New(playerClient, logger, metrics, sequencer.WithGap(cfg.AnnouncementDelay))

	// Audit publishing is feature-flagged via KAFKA_AUDIT_TOPIC.
	var auditor pipeline.Auditor
	var publisher *kafkaadapter.AuditPublisher
	if cfg.AuditEnabled {
		publisher = kafkaadapter.NewAuditPublisher(cfg, logger)
		auditor = publisher
		logger.Info("audit publishing enabled", "topic", cfg.KafkaAuditTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("audit publishing disabled")
	}

	p := pipeline.New(pipeline.Params{
		Fetchers:  fetchers,
		Tables:    tables,
		Station:   station,
		Dedupe:    dedupe,
		Synth:     audioadapter.NewClient(cfg.AudioBaseURL, cfg.AudioTimeout),
		Announcer: seq,
		Auditor:   auditor,
		Devices:   cfg.MediaEndpoints,

		PollInterval:     cfg.PollInterval,
		MaxAlerts:        cfg.MaxAlerts,
		NormalizeOptions: domain.NormalizeOptions{IncludeDescription: cfg.IncludeDescription},

		Logger:  logger,
		Metrics: metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the poll loop.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	// Let queued announcements finish playing before exit.
	if err := seq.Close(shutdownCtx); err != nil {
		logger.Error("sequencer drain error", "error", err)
	}
	if err := dedupe.Persist(); err != nil {
		logger.Error("ledger persist error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("audit publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildFetchers creates one feed client per configured zone and checks each
// identifier against the API. An unknown zone is a config error and fatal; a
// transport failure during the check is logged and tolerated, since the feed
// may simply be down at startup.
func buildFetchers(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]pipeline.AlertFetcher, error) {
	fetchers := make([]pipeline.AlertFetcher, 0, len(cfg.Zones))
	for _, z := range cfg.Zones {
		feedID, err := domain.FeedID(z.State, z.Zone, z.County)
		if err != nil {
			return nil, err
		}
		client := nws.NewClient(cfg.NWSBaseURL, feedID, cfg.NWSTimeout, logger)
		if err := client.ValidateFeed(ctx); err != nil {
			if errors.Is(err, nws.ErrZoneNotFound) {
				return nil, err
			}
			logger.Warn("zone check inconclusive, continuing", "feed", feedID, "error", err)
		}
		fetchers = append(fetchers, client)
		logger.Info("monitoring zone", "feed", feedID)
	}
	return fetchers, nil
}
