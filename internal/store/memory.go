// Package store provides the in-memory persistence used by the engine.
package store

import (
	"context"
	"sort"
	"sync"

	"fakeartist/internal/domain"
)

// Memory keeps sessions, participants and round records in process memory.
// All reads and writes work on copies so callers never share state with the
// store.
type Memory struct {
	mu sync.RWMutex

	sessions     map[string]*domain.Session
	codes        map[string]string // access code -> session ID
	participants map[string]*domain.Participant
	roster       map[string][]string // session ID -> participant IDs in join order

	words   []domain.SubmittedWord
	usage   []domain.LanguageUsage
	reports []domain.SelectionReport
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		sessions:     make(map[string]*domain.Session),
		codes:        make(map[string]string),
		participants: make(map[string]*domain.Participant),
		roster:       make(map[string][]string),
	}
}

// CreateSession stores a new session. The access code must be unused.
func (m *Memory) CreateSession(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := domain.NormalizeAccessCode(s.AccessCode)
	if _, taken := m.codes[code]; taken {
		return domain.ErrAccessCodeInUse
	}

	m.sessions[s.ID] = s.Clone()
	m.codes[code] = s.ID
	return nil
}

// GetSession returns a copy of the session
func (m *Memory) GetSession(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// FindSessionByCode looks a session up by its normalized access code
func (m *Memory) FindSessionByCode(_ context.Context, code string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.codes[domain.NormalizeAccessCode(code)]
	if !ok {
		return nil, domain.ErrAccessCodeNotFound
	}
	return m.sessions[id].Clone(), nil
}

// ListSessions returns every session ordered by creation time
func (m *Memory) ListSessions(_ context.Context) ([]*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateSession replaces a stored session
func (m *Memory) UpdateSession(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

// DeleteSession removes a session and frees its access code. Participants
// are removed separately with DeleteParticipants.
func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.codes, domain.NormalizeAccessCode(s.AccessCode))
	delete(m.sessions, id)
	return nil
}

// CreateParticipant adds a participant to an existing session
func (m *Memory) CreateParticipant(_ context.Context, p *domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[p.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.participants[p.ID] = p.Clone()
	m.roster[p.SessionID] = append(m.roster[p.SessionID], p.ID)
	return nil
}

// GetParticipant returns a copy of the participant
func (m *Memory) GetParticipant(_ context.Context, id string) (*domain.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.participants[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	return p.Clone(), nil
}

// ListParticipants returns a session's participants in join order
func (m *Memory) ListParticipants(ctx context.Context, sessionID string) ([]*domain.Participant, error) {
	return m.FindParticipants(ctx, sessionID, nil)
}

// FindParticipants returns the session's participants accepted by filter,
// in join order. A nil filter accepts everyone.
func (m *Memory) FindParticipants(_ context.Context, sessionID string, filter func(*domain.Participant) bool) ([]*domain.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.roster[sessionID]
	out := make([]*domain.Participant, 0, len(ids))
	for _, id := range ids {
		p := m.participants[id]
		if filter != nil && !filter(p) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out, nil
}

// UpdateParticipants replaces a batch of participants. Either every
// participant is written or, if one is unknown, none are.
func (m *Memory) UpdateParticipants(_ context.Context, ps []*domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range ps {
		if _, ok := m.participants[p.ID]; !ok {
			return domain.ErrParticipantNotFound
		}
	}
	for _, p := range ps {
		m.participants[p.ID] = p.Clone()
	}
	return nil
}

// DeleteParticipant removes one participant
func (m *Memory) DeleteParticipant(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[id]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	delete(m.participants, id)

	ids := m.roster[p.SessionID]
	for i, pid := range ids {
		if pid == id {
			m.roster[p.SessionID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(m.roster[p.SessionID]) == 0 {
		delete(m.roster, p.SessionID)
	}
	return nil
}

// DeleteParticipants removes every participant of a session and reports
// how many were removed
func (m *Memory) DeleteParticipants(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.roster[sessionID]
	for _, id := range ids {
		delete(m.participants, id)
	}
	delete(m.roster, sessionID)
	return len(ids), nil
}

// AddSubmittedWord records a word typed in by a question master
func (m *Memory) AddSubmittedWord(_ context.Context, w domain.SubmittedWord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words = append(m.words, w)
	return nil
}

// SubmittedWords returns every recorded word, oldest first
func (m *Memory) SubmittedWords(_ context.Context) ([]domain.SubmittedWord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.SubmittedWord(nil), m.words...), nil
}

// AddLanguageUsage records the locale of a started round
func (m *Memory) AddLanguageUsage(_ context.Context, u domain.LanguageUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = append(m.usage, u)
	return nil
}

// LanguageUsage returns every usage record, oldest first
func (m *Memory) LanguageUsage(_ context.Context) ([]domain.LanguageUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.LanguageUsage(nil), m.usage...), nil
}

// AddReport records feedback on a selection
func (m *Memory) AddReport(_ context.Context, r domain.SelectionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

// Reports returns every selection report, oldest first
func (m *Memory) Reports(_ context.Context) ([]domain.SelectionReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.SelectionReport(nil), m.reports...), nil
}
