package app

import (
	"context"
	"time"

	"fakeartist/internal/domain"
)

// Store persists sessions, participants and round records. Implementations
// return copies and report missing records with the domain not-found errors.
type Store interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	FindSessionByCode(ctx context.Context, code string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]*domain.Session, error)
	UpdateSession(ctx context.Context, s *domain.Session) error
	DeleteSession(ctx context.Context, id string) error

	CreateParticipant(ctx context.Context, p *domain.Participant) error
	GetParticipant(ctx context.Context, id string) (*domain.Participant, error)
	ListParticipants(ctx context.Context, sessionID string) ([]*domain.Participant, error)
	FindParticipants(ctx context.Context, sessionID string, filter func(*domain.Participant) bool) ([]*domain.Participant, error)
	UpdateParticipants(ctx context.Context, ps []*domain.Participant) error
	DeleteParticipant(ctx context.Context, id string) error
	DeleteParticipants(ctx context.Context, sessionID string) (int, error)

	AddSubmittedWord(ctx context.Context, w domain.SubmittedWord) error
	SubmittedWords(ctx context.Context) ([]domain.SubmittedWord, error)
	AddLanguageUsage(ctx context.Context, u domain.LanguageUsage) error
	LanguageUsage(ctx context.Context) ([]domain.LanguageUsage, error)
	AddReport(ctx context.Context, r domain.SelectionReport) error
	Reports(ctx context.Context) ([]domain.SelectionReport, error)
}

// Notifier receives every event after it has been applied
type Notifier interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// TimeSource returns the current time on the shared reference clock
type TimeSource interface {
	Now() (time.Time, error)
}

// RoleAssigner draws roles and turn order for a round
type RoleAssigner interface {
	Assign(participantIDs []string, questionMasterID string) (*domain.Assignment, error)
}

// WordSelector produces the selection for a round
type WordSelector interface {
	Chosen(word, category string) (*domain.Selection, error)
	RandomSet(locale string) (*domain.Selection, error)
	Resolve(locale string) string
}

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	Close() error
}
