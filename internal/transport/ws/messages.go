package ws

import (
	"encoding/json"
	"time"

	"fakeartist/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgStartRound  MessageType = "start_round"
	MsgPauseTimer  MessageType = "pause_timer"
	MsgResumeTimer MessageType = "resume_timer"
	MsgToggleTimer MessageType = "toggle_timer"
	MsgEndRound    MessageType = "end_round"
	MsgLeave       MessageType = "leave"
	MsgReport      MessageType = "report"
	MsgPing        MessageType = "ping"
)

// Server → Client message types. Engine events are forwarded as-is and
// carry their own upper-case type (SESSION_CHANGED and friends).
const (
	MsgConnected MessageType = "connected"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// StartRoundPayload is the payload for start_round message
type StartRoundPayload struct {
	Variant          domain.Variant `json:"variant"`
	QuestionMasterID string         `json:"questionMasterId"`
	Word             string         `json:"word"`
	Category         string         `json:"category"`
	Locale           string         `json:"locale"`
}

// ReportPayload is the payload for report message
type ReportPayload struct {
	Kind domain.ReportKind `json:"kind"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	ParticipantID string             `json:"participantId"`
	SessionID     string             `json:"sessionId"`
	View          *domain.PlayerView `json:"view"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes not covered by domain errors
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
