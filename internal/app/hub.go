package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"fakeartist/internal/domain"
)

const (
	// AccessCodeDigits is the length of the numeric access code
	AccessCodeDigits = 5

	// DefaultCodeAttempts bounds access code generation retries
	DefaultCodeAttempts = 10

	// DefaultStaleSessionTimeout is how long an empty session is kept
	DefaultStaleSessionTimeout = 2 * time.Hour

	// DefaultCleanupInterval is how often stale sessions are looked for
	DefaultCleanupInterval = 10 * time.Minute
)

// Config holds the engine's game settings
type Config struct {
	DefaultDurationMinutes int
	MinParticipants        int
	MaxParticipants        int // 0 means unlimited
	CodeAttempts           int
	StaleSessionTimeout    time.Duration
	CleanupInterval        time.Duration
}

// DefaultConfig returns the standard game settings
func DefaultConfig() Config {
	return Config{
		DefaultDurationMinutes: domain.DefaultDurationMinutes,
		MinParticipants:        2,
		MaxParticipants:        10,
		CodeAttempts:           DefaultCodeAttempts,
		StaleSessionTimeout:    DefaultStaleSessionTimeout,
		CleanupInterval:        DefaultCleanupInterval,
	}
}

// Deps are the collaborators of the engine. Notifier, Clock, NewCode and
// NewID are optional.
type Deps struct {
	Store    Store
	Time     TimeSource
	Assigner RoleAssigner
	Selector WordSelector
	Notifier Notifier
	Clock    clockwork.Clock
	NewCode  func() (string, error)
	NewID    func() string
	Logger   *slog.Logger
}

// Engine is the entry point for every session operation. It keeps one
// GameSession per live session; operations on different sessions never
// contend on the same lock.
type Engine struct {
	cfg      Config
	store    Store
	time     TimeSource
	assigner RoleAssigner
	selector WordSelector
	notifier Notifier
	clock    clockwork.Clock
	newCode  func() (string, error)
	newID    func() string
	logger   *slog.Logger

	sessions map[string]*GameSession // sessionID -> runtime
	mu       sync.RWMutex
	done     chan struct{}
	stopOnce sync.Once
}

// NewEngine creates an engine and starts its cleanup loop
func NewEngine(cfg Config, deps Deps) *Engine {
	defaults := DefaultConfig()
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = defaults.DefaultDurationMinutes
	}
	if cfg.MinParticipants < 2 {
		cfg.MinParticipants = defaults.MinParticipants
	}
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = defaults.CodeAttempts
	}
	if cfg.StaleSessionTimeout <= 0 {
		cfg.StaleSessionTimeout = defaults.StaleSessionTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	e := &Engine{
		cfg:      cfg,
		store:    deps.Store,
		time:     deps.Time,
		assigner: deps.Assigner,
		selector: deps.Selector,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		newCode:  deps.NewCode,
		newID:    deps.NewID,
		logger:   deps.Logger,
		sessions: make(map[string]*GameSession),
		done:     make(chan struct{}),
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.newCode == nil {
		e.newCode = randomAccessCode
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	go e.cleanupLoop()

	return e
}

// Config returns the effective settings
func (e *Engine) Config() Config {
	return e.cfg
}

// CreateOptions configures a new session
type CreateOptions struct {
	DurationMinutes int // 0 selects the configured default
}

// CreateSession creates a session waiting for players under a fresh access code
func (e *Engine) CreateSession(ctx context.Context, opts CreateOptions) (*domain.Session, error) {
	duration := opts.DurationMinutes
	if duration == 0 {
		duration = e.cfg.DefaultDurationMinutes
	}

	for attempt := 0; attempt < e.cfg.CodeAttempts; attempt++ {
		code, err := e.newCode()
		if err != nil {
			return nil, fmt.Errorf("generating access code: %w", err)
		}

		session, err := domain.NewSession(e.newID(), code, duration, e.clock.Now())
		if err != nil {
			return nil, err
		}

		err = e.store.CreateSession(ctx, session)
		if errors.Is(err, domain.ErrAccessCodeInUse) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("storing session: %w", err)
		}

		e.mu.Lock()
		e.sessions[session.ID] = newGameSession(session, e.notifier, e.logger)
		e.mu.Unlock()

		e.logger.Info("session created", "sessionID", session.ID, "accessCode", session.AccessCode)
		return session, nil
	}

	e.logger.Error("access code space exhausted", "attempts", e.cfg.CodeAttempts)
	return nil, domain.ErrCodeCollision
}

// Runtime returns the live runtime of a session
func (e *Engine) Runtime(sessionID string) (*GameSession, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession removes a session with all its participants and disconnects
// its clients
func (e *Engine) DeleteSession(ctx context.Context, sessionID, reason string) error {
	_, err := e.deleteSession(ctx, sessionID, reason, false)
	return err
}

// deleteSession removes the session under its lock. With onlyIfEmpty it
// leaves sessions that still have participants alone and reports false.
func (e *Engine) deleteSession(ctx context.Context, sessionID, reason string, onlyIfEmpty bool) (bool, error) {
	rt, err := e.Runtime(sessionID)
	if err != nil {
		return false, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if onlyIfEmpty {
		participants, err := e.store.ListParticipants(ctx, sessionID)
		if err != nil {
			return false, fmt.Errorf("listing participants: %w", err)
		}
		if len(participants) > 0 {
			return false, nil
		}
	}

	removed, err := e.store.DeleteParticipants(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("deleting participants: %w", err)
	}
	if err := e.store.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return false, fmt.Errorf("deleting session: %w", err)
	}

	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.mu.Unlock()

	rt.close(domain.NewEvent(domain.EventSessionClosed, sessionID, &domain.SessionClosedPayload{Reason: reason}, e.clock.Now()))

	e.logger.Info("session deleted", "sessionID", sessionID, "participants", removed, "reason", reason)
	return true, nil
}

// SessionCount returns the number of live sessions
func (e *Engine) SessionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// Close stops the cleanup loop and disconnects every client
func (e *Engine) Close() {
	e.stopOnce.Do(func() {
		close(e.done)

		e.mu.Lock()
		defer e.mu.Unlock()

		for _, session := range e.sessions {
			session.close(nil)
		}
		e.sessions = make(map[string]*GameSession)
	})
}

// refNow reads the reference clock, failing fast if it is not synchronized
func (e *Engine) refNow() (time.Time, error) {
	now, err := e.time.Now()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrClockNotReady, err)
	}
	return now, nil
}

// snapshotTime is the reference time used for event payloads. Before the
// first clock sync no round can have started, so the zero time is only ever
// applied to sessions without a deadline.
func (e *Engine) snapshotTime() time.Time {
	now, err := e.time.Now()
	if err != nil {
		return time.Time{}
	}
	return now
}

// randomAccessCode returns a uniformly random zero-padded numeric code
func randomAccessCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < AccessCodeDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", AccessCodeDigits, n.Int64()), nil
}

// cleanupLoop periodically removes stale sessions
func (e *Engine) cleanupLoop() {
	ticker := e.clock.NewTicker(e.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.Chan():
			e.cleanupStaleSessions(context.Background())
		}
	}
}

// cleanupStaleSessions removes sessions that have no participants and are
// older than the stale timeout
func (e *Engine) cleanupStaleSessions(ctx context.Context) int {
	e.mu.RLock()
	candidates := make([]*GameSession, 0, len(e.sessions))
	for _, session := range e.sessions {
		if e.clock.Since(session.CreatedAt()) > e.cfg.StaleSessionTimeout {
			candidates = append(candidates, session)
		}
	}
	e.mu.RUnlock()

	removed := 0
	for _, session := range candidates {
		deleted, err := e.deleteSession(ctx, session.ID(), "stale", true)
		if err != nil {
			e.logger.Warn("stale session cleanup failed", "sessionID", session.ID(), "error", err)
			continue
		}
		if deleted {
			removed++
		}
	}
	return removed
}
