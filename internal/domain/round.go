package domain

// Variant selects how the round's word and category are chosen
type Variant string

const (
	VariantQuestionMaster Variant = "QUESTION_MASTER" // Question master types word + category
	VariantRandom         Variant = "RANDOM"          // Drawn from the locale word bank
)

// Valid reports whether v is a known variant
func (v Variant) Valid() bool {
	return v == VariantQuestionMaster || v == VariantRandom
}

// Selection is the word/category payload of a round
type Selection struct {
	Variant    Variant  `json:"variant"`
	Word       string   `json:"word"`
	Category   string   `json:"category"`
	Candidates []string `json:"candidates,omitempty"` // Random variant only
}

// Clone returns a deep copy of the selection
func (s *Selection) Clone() *Selection {
	if s == nil {
		return nil
	}
	c := *s
	if s.Candidates != nil {
		c.Candidates = append([]string(nil), s.Candidates...)
	}
	return &c
}

// Assignment is the output of the role and turn assigner for one round
type Assignment struct {
	QuestionMasterID string         `json:"questionMasterId,omitempty"`
	FakeArtistID     string         `json:"fakeArtistId"`
	FirstPlayerID    string         `json:"firstPlayerId"`
	TurnOrder        map[string]int `json:"turnOrder"` // participantID -> 1-based turn
}

// Apply resets every participant and writes the assignment and visible
// category onto them. Participants not named by the assignment keep no role.
func (a *Assignment) Apply(participants []*Participant, category string) {
	for _, p := range participants {
		p.ResetForNewRound()
		p.Category = category

		if p.ID == a.QuestionMasterID {
			p.IsQuestionMaster = true
			continue
		}
		p.IsFakeArtist = p.ID == a.FakeArtistID
		p.IsFirstPlayer = p.ID == a.FirstPlayerID
		p.TurnOrder = a.TurnOrder[p.ID]
	}
}
