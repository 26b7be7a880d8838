// Package pipeline orchestrates the poll loop: fetch active alerts, drop the
// ones already announced, normalize the rest, render audio, and hand jobs to
// the sequencer.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/eas-alert-service/internal/domain"
	"github.com/couchcryptid/eas-alert-service/internal/observability"
	"github.com/couchcryptid/eas-alert-service/internal/sequencer"
)

// AlertFetcher reads the active alerts for one monitored zone.
type AlertFetcher interface {
	FetchActive(ctx context.Context) ([]domain.AlertRecord, error)
	FeedID() string
}

// Deduper tracks announced alert IDs across polls and restarts.
type Deduper interface {
	IsNew(id string) bool
	MarkAnnounced(id string, expiresAt time.Time)
	Persist() error
}

// Announcer accepts rendered announcement jobs for serialized playback.
type Announcer interface {
	Enqueue(job sequencer.Job) bool
}

// Auditor records completed announcement dispatches to an external sink.
type Auditor interface {
	RecordAnnouncement(ctx context.Context, alert domain.NormalizedAlert, header domain.SameHeader, mediaURL string, devices []string) error
}

// Params bundles the pipeline's collaborators and tuning.
type Params struct {
	Fetchers  []AlertFetcher
	Tables    *domain.Tables
	Station   domain.StationConfig
	Dedupe    Deduper
	Synth     domain.AudioSynthesizer
	Announcer Announcer
	Auditor   Auditor // nil disables audit publishing
	Devices   []string

	PollInterval     time.Duration
	MaxAlerts        int
	NormalizeOptions domain.NormalizeOptions

	Logger  *slog.Logger
	Metrics *observability.Metrics
	Clock   clockwork.Clock // nil means real clock
}

// Pipeline runs the fetch-normalize-announce loop.
type Pipeline struct {
	fetchers  []AlertFetcher
	tables    *domain.Tables
	station   domain.StationConfig
	dedupe    Deduper
	synth     domain.AudioSynthesizer
	announcer Announcer
	auditor   Auditor
	devices   []string

	pollInterval time.Duration
	maxAlerts    int
	normOpts     domain.NormalizeOptions

	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	ready   atomic.Bool

	snapMu   sync.RWMutex
	snapshot []domain.AlertRecord
}

// New creates a Pipeline from its collaborators.
func New(p Params) *Pipeline {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		fetchers:     p.Fetchers,
		tables:       p.Tables,
		station:      p.Station,
		dedupe:       p.Dedupe,
		synth:        p.Synth,
		announcer:    p.Announcer,
		auditor:      p.Auditor,
		devices:      p.Devices,
		pollInterval: p.PollInterval,
		maxAlerts:    p.MaxAlerts,
		normOpts:     p.NormalizeOptions,
		logger:       p.Logger,
		metrics:      p.Metrics,
		clock:        clock,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// poll, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a poll yet")
	}
	return nil
}

// Alerts returns the active alerts observed by the most recent poll.
func (p *Pipeline) Alerts() []domain.AlertRecord {
	p.snapMu.RLock()
	defer p.snapMu.RUnlock()
	return append([]domain.AlertRecord(nil), p.snapshot...)
}

// Run polls until the context is cancelled. The first poll happens
// immediately; subsequent polls wait out the configured interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"zones", len(p.fetchers),
		"poll_interval", p.pollInterval,
		"max_alerts", p.maxAlerts,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		p.poll(ctx)
		p.ready.Store(true)

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(p.pollInterval):
		}
	}
}

// poll runs one fetch-normalize-announce cycle. A fetch failure on one zone
// is logged and skipped; the other zones still process.
func (p *Pipeline) poll(ctx context.Context) {
	start := p.clock.Now()

	var batch []domain.AlertRecord
	for _, f := range p.fetchers {
		alerts, err := f.FetchActive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("alert fetch failed", "feed", f.FeedID(), "error", err)
			continue
		}
		batch = append(batch, alerts...)
	}

	p.metrics.AlertsFetched.Add(float64(len(batch)))
	if len(batch) > p.maxAlerts {
		p.logger.Warn("alert batch capped", "fetched", len(batch), "cap", p.maxAlerts)
		batch = batch[:p.maxAlerts]
	}
	p.setSnapshot(batch)

	fresh := make([]domain.AlertRecord, 0, len(batch))
	for _, rec := range batch {
		if p.dedupe.IsNew(rec.ID) {
			fresh = append(fresh, rec)
		}
	}
	if len(fresh) == 0 {
		p.metrics.PollDuration.Observe(p.clock.Since(start).Seconds())
		return
	}

	// Mark and persist every fresh ID before dispatching anything. A crash
	// in between skips announcements rather than repeating them.
	for _, rec := range fresh {
		p.dedupe.MarkAnnounced(rec.ID, rec.EndsOrExpires)
	}
	if err := p.dedupe.Persist(); err != nil {
		p.logger.Error("ledger persist failed", "error", err)
	}

	for _, rec := range fresh {
		if ctx.Err() != nil {
			return
		}
		p.dispatch(ctx, rec)
	}
	p.metrics.PollDuration.Observe(p.clock.Since(start).Seconds())
}

// dispatch normalizes one alert, renders its announcement audio, and hands
// the job to the sequencer. Per-alert failures never abort the batch.
func (p *Pipeline) dispatch(ctx context.Context, rec domain.AlertRecord) {
	normalized, err := domain.Normalize(rec, p.tables, p.normOpts)
	if err != nil {
		var rej *domain.RejectError
		if errors.As(err, &rej) {
			p.metrics.AlertsRejected.WithLabelValues(string(rej.Reason)).Inc()
			p.logger.Debug("alert skipped", "alert_id", rec.ID, "reason", rej.Reason, "detail", rej.Detail)
		} else {
			p.logger.Warn("alert normalization failed", "alert_id", rec.ID, "error", err)
		}
		return
	}

	header := domain.EncodeHeader(normalized, p.station)

	announcement, err := p.renderAnnouncement(ctx, normalized, header)
	if err != nil {
		p.metrics.AudioFailures.Inc()
		p.logger.Warn("audio generation failed, alert not announced",
			"alert_id", normalized.ID, "header", header.Minimal(), "error", err)
		return
	}

	ok := p.announcer.Enqueue(sequencer.Job{
		AlertID:          normalized.ID,
		MinimalHeader:    header.Minimal(),
		MediaURL:         announcement.MediaURL,
		Devices:          p.devices,
		ExpectedDuration: announcement.Duration,
	})
	if !ok {
		p.logger.Warn("sequencer closed, announcement dropped", "alert_id", normalized.ID)
		return
	}

	p.metrics.AlertsAnnounced.Inc()
	p.logger.Info("alert queued for announcement",
		"alert_id", normalized.ID,
		"event_code", normalized.EventCode,
		"header", header.Minimal(),
		"media_url", announcement.MediaURL,
	)

	if p.auditor != nil {
		if err := p.auditor.RecordAnnouncement(ctx, normalized, header, announcement.MediaURL, p.devices); err != nil {
			p.metrics.AuditErrors.Inc()
			p.logger.Warn("audit publish failed", "alert_id", normalized.ID, "error", err)
		} else {
			p.metrics.AuditPublished.Inc()
		}
	}
}

// renderAnnouncement assembles the three-part program: header burst with
// attention tone, spoken alert text, end-of-message burst. The minimal header
// keys the render cache so a repeated alert reuses its audio.
func (p *Pipeline) renderAnnouncement(ctx context.Context, n domain.NormalizedAlert, header domain.SameHeader) (domain.Announcement, error) {
	burst, err := p.synth.HeaderBurst(ctx, header.Full())
	if err != nil {
		return domain.Announcement{}, err
	}
	speech, err := p.synth.Speech(ctx, n.SpokenText)
	if err != nil {
		return domain.Announcement{}, err
	}
	eom, err := p.synth.EndOfMessage(ctx)
	if err != nil {
		return domain.Announcement{}, err
	}
	return p.synth.Render(ctx, header.Minimal(), burst, speech, eom)
}

func (p *Pipeline) setSnapshot(alerts []domain.AlertRecord) {
	p.snapMu.Lock()
	p.snapshot = append([]domain.AlertRecord(nil), alerts...)
	p.snapMu.Unlock()
}
