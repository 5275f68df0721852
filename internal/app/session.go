package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fakeartist/internal/domain"
)

// eventQueueSize bounds the per-session broadcast backlog
const eventQueueSize = 100

// GameSession is the runtime half of a session: the lock that serializes
// its transitions, the connected clients and the event loop that delivers
// changes to them. The session record itself lives in the Store.
type GameSession struct {
	id        string
	createdAt time.Time

	// mu serializes transitions. Reads take the read lock so they never
	// observe a half-applied round start.
	mu sync.RWMutex

	clients   map[string]ClientConnection // participantID -> client
	clientsMu sync.RWMutex

	notifier Notifier
	logger   *slog.Logger

	events    chan *domain.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newGameSession(s *domain.Session, notifier Notifier, logger *slog.Logger) *GameSession {
	session := &GameSession{
		id:        s.ID,
		createdAt: s.CreatedAt,
		clients:   make(map[string]ClientConnection),
		notifier:  notifier,
		logger:    logger.With("sessionID", s.ID),
		events:    make(chan *domain.Event, eventQueueSize),
		done:      make(chan struct{}),
	}

	go session.eventLoop()

	return session
}

// ID returns the session ID
func (s *GameSession) ID() string {
	return s.id
}

// CreatedAt returns when the session was created
func (s *GameSession) CreatedAt() time.Time {
	return s.createdAt
}

// RegisterClient registers a client connection for a participant, replacing
// any previous connection of the same participant
func (s *GameSession) RegisterClient(participantID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if old, ok := s.clients[participantID]; ok && old != client {
		old.Close()
	}
	s.clients[participantID] = client
}

// UnregisterClient removes a client connection if it is still the current one
func (s *GameSession) UnregisterClient(participantID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if current, ok := s.clients[participantID]; ok && current == client {
		delete(s.clients, participantID)
	}
}

// ClientCount returns the number of connected clients
func (s *GameSession) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// dropClient closes and forgets a participant's connection
func (s *GameSession) dropClient(participantID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if client, ok := s.clients[participantID]; ok {
		client.Close()
		delete(s.clients, participantID)
	}
}

// queueEvent adds an event to the broadcast queue
func (s *GameSession) queueEvent(event *domain.Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// eventLoop delivers events in order until the session is closed
func (s *GameSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.broadcastEvent(event)
			s.publish(event)
		}
	}
}

// broadcastEvent sends an event to the clients it is addressed to
func (s *GameSession) broadcastEvent(event *domain.Event) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	// Personal events go to their participant only
	if event.ParticipantID != "" && event.Type == domain.EventParticipantChanged {
		if client, ok := s.clients[event.ParticipantID]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug("failed to send to client", "participantID", event.ParticipantID, "error", err)
			}
		}
		return
	}

	for participantID, client := range s.clients {
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "participantID", participantID, "error", err)
		}
	}
}

func (s *GameSession) publish(event *domain.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(context.Background(), event); err != nil {
		s.logger.Warn("failed to publish event", "type", event.Type, "error", err)
	}
}

// close stops the event loop and disconnects every client. The final event,
// if any, is delivered synchronously first.
func (s *GameSession) close(final *domain.Event) {
	s.closeOnce.Do(func() {
		close(s.done)

		if final != nil {
			s.broadcastEvent(final)
			s.publish(final)
		}

		s.clientsMu.Lock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clients = make(map[string]ClientConnection)
		s.clientsMu.Unlock()
	})
}
