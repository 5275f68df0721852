package domain

import "time"

// EventType represents the type of engine event
type EventType string

const (
	EventSessionChanged     EventType = "SESSION_CHANGED"
	EventParticipantChanged EventType = "PARTICIPANT_CHANGED"
	EventParticipantJoined  EventType = "PARTICIPANT_JOINED"
	EventParticipantLeft    EventType = "PARTICIPANT_LEFT"
	EventSessionClosed      EventType = "SESSION_CLOSED"
)

// Event is emitted after each successful transition
type Event struct {
	Type          EventType   `json:"type"`
	SessionID     string      `json:"sessionId"`
	ParticipantID string      `json:"participantId,omitempty"` // If event is participant-specific
	Payload       interface{} `json:"payload,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewEvent creates a new session-wide event
func NewEvent(eventType EventType, sessionID string, payload interface{}, at time.Time) *Event {
	return &Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: at,
	}
}

// NewParticipantEvent creates an event addressed to a single participant
func NewParticipantEvent(eventType EventType, sessionID, participantID string, payload interface{}, at time.Time) *Event {
	return &Event{
		Type:          eventType,
		SessionID:     sessionID,
		ParticipantID: participantID,
		Payload:       payload,
		Timestamp:     at,
	}
}

// ParticipantLeftPayload is sent when a participant leaves or is removed
type ParticipantLeftPayload struct {
	ParticipantID string       `json:"participantId"`
	Session       *SessionView `json:"session"`
}

// SessionClosedPayload is sent when a session is deleted
type SessionClosedPayload struct {
	Reason string `json:"reason"`
}
