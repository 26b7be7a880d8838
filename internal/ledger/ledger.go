// Package ledger tracks which alert IDs have already been announced, so an
// alert is spoken at most once across process restarts. State is a small JSON
// document loaded once at startup and rewritten wholesale after each batch.
package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// state is the persisted document. announced_alerts keeps the original flat
// list shape; alert_expiries carries the expiry timestamps that drive
// retention sweeps.
type state struct {
	AnnouncedAlerts []string             `json:"announced_alerts"`
	AlertExpiries   map[string]time.Time `json:"alert_expiries,omitempty"`
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock swaps the time source used by the retention sweep. Tests inject a
// fake clock to exercise eviction deterministically.
func WithClock(c clockwork.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// Ledger is the persisted set of announced alert IDs. Safe for concurrent
// use; the check-then-mark path must hold callers to IsNew/MarkAnnounced
// rather than reading internal state.
type Ledger struct {
	path      string
	retention time.Duration
	logger    *slog.Logger
	clock     clockwork.Clock

	mu        sync.Mutex
	announced map[string]time.Time // id -> alert expiry (zero when unknown)
}

// Open loads the ledger from path. A missing or corrupt state file starts the
// ledger empty: re-announcing once after state loss is preferred over
// refusing to start. retention bounds how long an entry outlives its alert's
// expiry before the sweep drops it.
func Open(path string, retention time.Duration, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		path:      path,
		retention: retention,
		logger:    logger,
		clock:     clockwork.NewRealClock(),
		announced: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.load()
	return l
}

func (l *Ledger) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("ledger read failed, starting empty", "path", l.path, "error", err)
		}
		return
	}

	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		l.logger.Warn("ledger state corrupt, starting empty", "path", l.path, "error", err)
		return
	}

	for _, id := range s.AnnouncedAlerts {
		l.announced[id] = s.AlertExpiries[id]
	}
	l.logger.Info("ledger loaded", "path", l.path, "entries", len(l.announced))
}

// IsNew reports whether the alert ID has not been announced yet.
func (l *Ledger) IsNew(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, seen := l.announced[id]
	return !seen
}

// MarkAnnounced records the alert ID with its expiry timestamp. Idempotent:
// re-marking a present ID is a no-op that keeps the earlier expiry.
func (l *Ledger) MarkAnnounced(id string, expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.announced[id]; seen {
		return
	}
	l.announced[id] = expiresAt
}

// Persist sweeps expired entries and rewrites the state file atomically
// (temp file + rename). Called after each batch of new IDs is marked, before
// their announcements are dispatched: a crash in between skips rather than
// repeats an announcement.
func (l *Ledger) Persist() error {
	l.mu.Lock()
	l.sweepLocked()

	s := state{
		AnnouncedAlerts: make([]string, 0, len(l.announced)),
		AlertExpiries:   make(map[string]time.Time, len(l.announced)),
	}
	for id, exp := range l.announced {
		s.AnnouncedAlerts = append(s.AnnouncedAlerts, id)
		if !exp.IsZero() {
			s.AlertExpiries[id] = exp
		}
	}
	l.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode ledger state: %w", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger state: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger state: %w", err)
	}
	return nil
}

// sweepLocked drops entries whose alert expiry is more than retention in the
// past. Entries without an expiry are kept; they predate expiry tracking.
func (l *Ledger) sweepLocked() {
	cutoff := l.clock.Now().Add(-l.retention)
	dropped := 0
	for id, exp := range l.announced {
		if !exp.IsZero() && exp.Before(cutoff) {
			delete(l.announced, id)
			dropped++
		}
	}
	if dropped > 0 {
		l.logger.Debug("ledger sweep", "dropped", dropped, "remaining", len(l.announced))
	}
}

// Len reports the number of tracked alert IDs.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.announced)
}
