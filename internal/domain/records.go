package domain

import "time"

// SubmittedWord records a word/category typed in by a question master
type SubmittedWord struct {
	Word      string    `json:"word"`
	Category  string    `json:"category"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"createdAt"`
}

// LanguageUsage records the locale and table size of a started round
type LanguageUsage struct {
	SessionID        string    `json:"sessionId"`
	Locale           string    `json:"locale"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ReportKind is the kind of feedback a player can leave on a selection
type ReportKind string

const (
	ReportBadWord     ReportKind = "BAD_WORD"
	ReportBadCategory ReportKind = "BAD_CATEGORY"
)

// Valid reports whether k is a known report kind
func (k ReportKind) Valid() bool {
	return k == ReportBadWord || k == ReportBadCategory
}

// SelectionReport is feedback on the word or category of a round
type SelectionReport struct {
	SessionID string     `json:"sessionId"`
	Kind      ReportKind `json:"kind"`
	Word      string     `json:"word"`
	Category  string     `json:"category"`
	Locale    string     `json:"locale"`
	CreatedAt time.Time  `json:"createdAt"`
}
