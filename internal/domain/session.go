package domain

import (
	"strings"
	"time"
)

// DefaultDurationMinutes is the round length used when none is configured
const DefaultDurationMinutes = 10

// Session represents one game session with its timer and current selection.
// All timestamps are on the synchronized reference clock.
type Session struct {
	ID              string     `json:"id"`
	AccessCode      string     `json:"accessCode"`
	Phase           Phase      `json:"phase"`
	DurationMinutes int        `json:"durationMinutes"`
	EndTime         *time.Time `json:"endTime"`
	Paused          bool       `json:"paused"`
	PausedAt        *time.Time `json:"pausedAt"`
	Selection       *Selection `json:"selection"`
	Locale          string     `json:"locale,omitempty"`
	RoundNumber     int        `json:"roundNumber"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// NewSession creates a session waiting for players
func NewSession(id, accessCode string, durationMinutes int, createdAt time.Time) (*Session, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	return &Session{
		ID:              id,
		AccessCode:      NormalizeAccessCode(accessCode),
		Phase:           PhaseWaitingForPlayers,
		DurationMinutes: durationMinutes,
		CreatedAt:       createdAt,
	}, nil
}

// NormalizeAccessCode makes access codes case-insensitive and whitespace tolerant
func NormalizeAccessCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Duration returns the configured round length
func (s *Session) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Clone returns a deep copy so a transition can be applied and discarded on failure
func (s *Session) Clone() *Session {
	c := *s
	c.EndTime = cloneTime(s.EndTime)
	c.PausedAt = cloneTime(s.PausedAt)
	c.Selection = s.Selection.Clone()
	return &c
}

// IsInProgress reports whether a round is running
func (s *Session) IsInProgress() bool {
	return s.Phase == PhaseInProgress
}

// StartRound starts (or restarts) a round ending one duration after now.
// The participant count precondition is checked by the caller, which owns the roster.
func (s *Session) StartRound(now time.Time, sel *Selection, locale string) error {
	if !s.Phase.CanTransitionTo(PhaseInProgress) {
		return ErrInvalidTransition
	}
	if sel == nil || !sel.Variant.Valid() {
		return ErrInvalidVariant
	}

	end := now.Add(s.Duration())

	s.Phase = PhaseInProgress
	s.EndTime = &end
	s.Paused = false
	s.PausedAt = nil
	s.Selection = sel.Clone()
	s.Locale = locale
	s.RoundNumber++

	return nil
}

// Pause freezes the countdown at now
func (s *Session) Pause(now time.Time) error {
	if s.Phase != PhaseInProgress {
		return ErrRoundNotInProgress
	}
	if s.Paused {
		return ErrAlreadyPaused
	}

	s.Paused = true
	s.PausedAt = &now
	return nil
}

// Resume shifts the deadline forward by exactly the time spent paused
func (s *Session) Resume(now time.Time) error {
	if s.Phase != PhaseInProgress {
		return ErrRoundNotInProgress
	}
	if !s.Paused || s.PausedAt == nil || s.EndTime == nil {
		return ErrNotPaused
	}

	end := s.EndTime.Add(now.Sub(*s.PausedAt))
	s.EndTime = &end
	s.Paused = false
	s.PausedAt = nil
	return nil
}

// ToggleTimer resumes a paused timer, otherwise pauses it
func (s *Session) ToggleTimer(now time.Time) error {
	if s.Paused {
		return s.Resume(now)
	}
	return s.Pause(now)
}

// EndRound returns the session to the lobby
func (s *Session) EndRound() error {
	if s.Phase != PhaseInProgress {
		return ErrRoundNotInProgress
	}

	s.Phase = PhaseWaitingForPlayers
	s.EndTime = nil
	s.Paused = false
	s.PausedAt = nil
	s.Selection = nil
	return nil
}

// Remaining computes time left on the countdown, never negative. While paused
// both ends of the subtraction are reference timestamps so the offset cancels.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.Phase != PhaseInProgress || s.EndTime == nil {
		return 0
	}

	var remaining time.Duration
	if s.Paused && s.PausedAt != nil {
		remaining = s.EndTime.Sub(*s.PausedAt)
	} else {
		remaining = s.EndTime.Sub(now)
	}

	if remaining < 0 {
		return 0
	}
	return remaining
}

// Finished reports whether the running round's countdown has reached zero
func (s *Session) Finished(now time.Time) bool {
	return s.Phase == PhaseInProgress && s.Remaining(now) == 0
}

// CheckInvariants verifies the record is internally consistent
func (s *Session) CheckInvariants() error {
	if s.Paused && (s.PausedAt == nil || s.Phase != PhaseInProgress) {
		return ErrInvalidTransition
	}
	if s.EndTime != nil && s.Phase != PhaseInProgress {
		return ErrInvalidTransition
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
