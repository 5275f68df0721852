package domain

import "time"

// Participant represents one person joined to a session
type Participant struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	DisplayName      string    `json:"displayName"`
	IsQuestionMaster bool      `json:"isQuestionMaster"`
	IsFakeArtist     bool      `json:"isFakeArtist"`
	IsFirstPlayer    bool      `json:"isFirstPlayer"`
	TurnOrder        int       `json:"turnOrder,omitempty"` // 1-based, 0 while unassigned
	Category         string    `json:"category,omitempty"`
	JoinedAt         time.Time `json:"joinedAt"`
}

// NewParticipant creates a new participant with no role assigned
func NewParticipant(id, sessionID, displayName string, joinedAt time.Time) *Participant {
	return &Participant{
		ID:          id,
		SessionID:   sessionID,
		DisplayName: displayName,
		JoinedAt:    joinedAt,
	}
}

// ResetForNewRound clears the role and turn fields
func (p *Participant) ResetForNewRound() {
	p.IsQuestionMaster = false
	p.IsFakeArtist = false
	p.IsFirstPlayer = false
	p.TurnOrder = 0
	p.Category = ""
}

// Role derives the participant's role label
func (p *Participant) Role() Role {
	switch {
	case p.IsQuestionMaster:
		return RoleQuestionMaster
	case p.IsFakeArtist:
		return RoleFakeArtist
	case p.TurnOrder > 0:
		return RoleArtist
	default:
		return RoleNone
	}
}

// Clone returns a copy that can be mutated without affecting the original
func (p *Participant) Clone() *Participant {
	c := *p
	return &c
}

// ParticipantInfo is a safe view of participant data (hides the fake artist flag)
type ParticipantInfo struct {
	ID               string `json:"id"`
	DisplayName      string `json:"displayName"`
	IsQuestionMaster bool   `json:"isQuestionMaster"`
	IsFirstPlayer    bool   `json:"isFirstPlayer"`
	TurnOrder        int    `json:"turnOrder,omitempty"`
}

// ToInfo converts a Participant to ParticipantInfo
func (p *Participant) ToInfo() ParticipantInfo {
	return ParticipantInfo{
		ID:               p.ID,
		DisplayName:      p.DisplayName,
		IsQuestionMaster: p.IsQuestionMaster,
		IsFirstPlayer:    p.IsFirstPlayer,
		TurnOrder:        p.TurnOrder,
	}
}

// ClientContext identifies the caller of an engine operation. It is carried by
// each connection and passed explicitly rather than kept as ambient state.
type ClientContext struct {
	SessionID     string
	ParticipantID string
}
