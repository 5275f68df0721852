package domain

import "time"

// SessionView is the public snapshot of a session. It never carries the
// secret word; that is only handed out through PlayerView.
type SessionView struct {
	ID              string            `json:"id"`
	AccessCode      string            `json:"accessCode"`
	Phase           Phase             `json:"phase"`
	DurationMinutes int               `json:"durationMinutes"`
	EndTime         *time.Time        `json:"endTime"`
	Paused          bool              `json:"paused"`
	PausedAt        *time.Time        `json:"pausedAt"`
	RemainingMs     int64             `json:"remainingMs"`
	Finished        bool              `json:"finished"`
	RoundNumber     int               `json:"roundNumber"`
	Variant         Variant           `json:"variant,omitempty"`
	Category        string            `json:"category,omitempty"`
	Candidates      []string          `json:"candidates,omitempty"`
	Participants    []ParticipantInfo `json:"participants"`
}

// View builds the public snapshot at reference time now
func (s *Session) View(participants []*Participant, now time.Time) *SessionView {
	v := &SessionView{
		ID:              s.ID,
		AccessCode:      s.AccessCode,
		Phase:           s.Phase,
		DurationMinutes: s.DurationMinutes,
		EndTime:         cloneTime(s.EndTime),
		Paused:          s.Paused,
		PausedAt:        cloneTime(s.PausedAt),
		RemainingMs:     s.Remaining(now).Milliseconds(),
		Finished:        s.Finished(now),
		RoundNumber:     s.RoundNumber,
		Participants:    make([]ParticipantInfo, 0, len(participants)),
	}

	if s.Selection != nil {
		v.Variant = s.Selection.Variant
		v.Category = s.Selection.Category
		v.Candidates = append([]string(nil), s.Selection.Candidates...)
	}

	for _, p := range participants {
		v.Participants = append(v.Participants, p.ToInfo())
	}

	return v
}

// PlayerView is what one participant is allowed to see
type PlayerView struct {
	Session *SessionView `json:"session"`
	You     *Participant `json:"you"`
	Role    Role         `json:"role"`
	Word    string       `json:"word,omitempty"` // Empty for the fake artist
}

// PlayerView builds the personalized view for participant me
func (s *Session) PlayerView(participants []*Participant, me *Participant, now time.Time) *PlayerView {
	v := &PlayerView{
		Session: s.View(participants, now),
		You:     me.Clone(),
		Role:    me.Role(),
	}

	if s.Selection != nil && v.Role.SeesWord() {
		v.Word = s.Selection.Word
	}

	return v
}
