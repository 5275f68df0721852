// Package clocksync keeps a cached offset between the local clock and a
// shared reference clock so deadlines mean the same instant for everyone.
package clocksync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrNotReady is returned until the first successful probe
var ErrNotReady = errors.New("clock offset not established")

// DefaultInterval is how often Run re-probes the reference clock
const DefaultInterval = time.Minute

// Prober measures the offset of the reference clock relative to local time.
// A positive offset means the reference clock is ahead.
type Prober interface {
	Probe(ctx context.Context) (time.Duration, error)
}

// Synchronizer converts between local and reference time
type Synchronizer struct {
	clock    clockwork.Clock
	prober   Prober
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	offset   time.Duration
	ready    bool
	syncedAt time.Time
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithClock sets the local clock
func WithClock(c clockwork.Clock) Option {
	return func(s *Synchronizer) { s.clock = c }
}

// WithInterval sets the refresh interval used by Run
func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger used for refresh failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// New creates a synchronizer that is not ready until Refresh succeeds
func New(prober Prober, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		clock:    clockwork.NewRealClock(),
		prober:   prober,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time on the reference clock
func (s *Synchronizer) Now() (time.Time, error) {
	offset, err := s.Offset()
	if err != nil {
		return time.Time{}, err
	}
	return s.clock.Now().Add(offset), nil
}

// ToLocal converts a reference timestamp to local time
func (s *Synchronizer) ToLocal(ref time.Time) (time.Time, error) {
	offset, err := s.Offset()
	if err != nil {
		return time.Time{}, err
	}
	return ref.Add(-offset), nil
}

// Offset returns the cached offset
func (s *Synchronizer) Offset() (time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return 0, ErrNotReady
	}
	return s.offset, nil
}

// SyncedAt returns the local time of the last successful probe
func (s *Synchronizer) SyncedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncedAt, s.ready
}

// Refresh probes the reference clock once. On failure the previous offset,
// if any, stays in effect.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	offset, err := s.prober.Probe(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.offset = offset
	s.ready = true
	s.syncedAt = s.clock.Now()
	s.mu.Unlock()

	s.logger.Debug("clock offset refreshed", "offset", offset)
	return nil
}

// Run refreshes immediately and then every interval until ctx is done
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("clock refresh failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}
