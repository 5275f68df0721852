package notify

import (
	"context"
	"errors"
	"log/slog"

	"fakeartist/internal/domain"
)

// Publisher receives engine events
type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// Log writes every event to a structured logger
type Log struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLog creates a log publisher emitting at level
func NewLog(logger *slog.Logger, level slog.Level) *Log {
	return &Log{logger: logger, level: level}
}

// Publish logs the event without its payload
func (l *Log) Publish(ctx context.Context, event *domain.Event) error {
	l.logger.Log(ctx, l.level, "session event",
		"type", event.Type,
		"sessionID", event.SessionID,
		"participantID", event.ParticipantID,
	)
	return nil
}

// Multi fans an event out to several publishers
type Multi []Publisher

// Publish delivers to every publisher and joins their errors
func (m Multi) Publish(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
