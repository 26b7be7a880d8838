// Package sequencer serializes announcement playback over shared output
// devices. Producers enqueue from any goroutine; a single worker drains the
// queue in FIFO order, so announcements play in detection order and never
// overlap.
package sequencer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/eas-alert-service/internal/observability"
)

const (
	defaultIdlePollInterval = 500 * time.Millisecond
	defaultIdleWaitCeiling  = 30 * time.Second
)

// Player issues commands to one output device. Implementations talk to the
// external media API; the sequencer only needs play and a boolean idle check.
type Player interface {
	Play(ctx context.Context, deviceID, mediaURL string) error
	IsIdle(ctx context.Context, deviceID string) (bool, error)
}

// Job is one queued announcement: rendered audio plus the devices it targets.
type Job struct {
	AlertID          string
	MinimalHeader    string
	MediaURL         string
	Devices          []string
	ExpectedDuration time.Duration
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock swaps the time source for waits and polling. Tests inject a fake
// clock to drive jobs without real sleeps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithIdlePoll overrides the device idle polling cadence and ceiling.
func WithIdlePoll(interval, ceiling time.Duration) Option {
	return func(s *Sequencer) {
		s.idlePollInterval = interval
		s.idleWaitCeiling = ceiling
	}
}

// WithGap inserts a pause between consecutive announcements.
func WithGap(gap time.Duration) Option {
	return func(s *Sequencer) { s.gap = gap }
}

// Sequencer owns the announcement queue. At most one job is ever playing or
// waiting for device idle; everything else sits queued in arrival order.
type Sequencer struct {
	player  Player
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	idlePollInterval time.Duration
	idleWaitCeiling  time.Duration
	gap              time.Duration

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Job
	draining bool
	closed   bool
}

// New creates a Sequencer. The worker starts lazily on the first Enqueue.
func New(player Player, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Sequencer {
	s := &Sequencer{
		player:           player,
		logger:           logger,
		metrics:          metrics,
		clock:            clockwork.NewRealClock(),
		idlePollInterval: defaultIdlePollInterval,
		idleWaitCeiling:  defaultIdleWaitCeiling,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Enqueue appends a job to the queue and starts the drain worker if none is
// running. Safe to call from multiple concurrent producers; returns false
// after Close.
func (s *Sequencer) Enqueue(job Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.queue = append(s.queue, job)
	s.metrics.QueueDepth.Set(float64(len(s.queue)))
	if !s.draining {
		s.draining = true
		go s.drain()
	}
	return true
}

// drain pops jobs in FIFO order until the queue empties, then exits. A later
// Enqueue starts a fresh worker.
func (s *Sequencer) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		job := s.queue[0]
		s.queue = s.queue[1:]
		s.metrics.QueueDepth.Set(float64(len(s.queue)))
		s.mu.Unlock()

		s.runJob(job)

		if s.gap > 0 {
			<-s.clock.After(s.gap)
		}
	}
}

// runJob plays one announcement to completion. Device failures are logged and
// the job still completes; one bad job must never block the queue. In-flight
// announcements are not cancellable, so commands run under a background
// context.
func (s *Sequencer) runJob(job Job) {
	ctx := context.Background()
	start := s.clock.Now()

	s.logger.Info("announcement playing",
		"alert_id", job.AlertID,
		"header", job.MinimalHeader,
		"devices", len(job.Devices),
		"expected_duration", job.ExpectedDuration,
	)

	var wg sync.WaitGroup
	for _, device := range job.Devices {
		wg.Add(1)
		go func(device string) {
			defer wg.Done()
			if err := s.player.Play(ctx, device, job.MediaURL); err != nil {
				s.metrics.DeviceCommandErrors.Inc()
				s.logger.Warn("play command failed",
					"alert_id", job.AlertID, "device", device, "error", err)
			}
		}(device)
	}
	wg.Wait()

	if job.ExpectedDuration > 0 {
		<-s.clock.After(job.ExpectedDuration)
	}
	s.waitForIdle(ctx, job)

	s.metrics.AnnounceDuration.Observe(s.clock.Since(start).Seconds())
	s.logger.Info("announcement done", "alert_id", job.AlertID)
}

// waitForIdle polls the target devices until all report idle or the ceiling
// elapses. The ceiling is a safety bound, not an error: timing out counts as
// completion.
func (s *Sequencer) waitForIdle(ctx context.Context, job Job) {
	deadline := s.clock.Now().Add(s.idleWaitCeiling)
	for {
		if s.allIdle(ctx, job.Devices) {
			return
		}
		if !s.clock.Now().Add(s.idlePollInterval).Before(deadline) {
			s.metrics.IdleWaitTimeouts.Inc()
			s.logger.Debug("idle wait ceiling reached", "alert_id", job.AlertID)
			return
		}
		<-s.clock.After(s.idlePollInterval)
	}
}

// allIdle reports whether every device is idle. A state-check error counts as
// idle: device state is observed, not owned, and a flaky status endpoint must
// not wedge the queue.
func (s *Sequencer) allIdle(ctx context.Context, devices []string) bool {
	for _, device := range devices {
		idle, err := s.player.IsIdle(ctx, device)
		if err != nil {
			s.logger.Debug("device state check failed", "device", device, "error", err)
			continue
		}
		if !idle {
			return false
		}
	}
	return true
}

// Close stops accepting new jobs and waits for the queue to drain, up to the
// context deadline. Queued jobs still play; none are cancelled.
func (s *Sequencer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.mu.Lock()
		for s.draining || len(s.queue) > 0 {
			s.cond.Wait()
		}
		s.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth reports the number of queued (not yet playing) jobs.
func (s *Sequencer) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
