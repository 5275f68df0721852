package domain

// Role is the derived role label of a participant in the current round
type Role string

const (
	RoleNone           Role = ""
	RoleQuestionMaster Role = "QUESTION_MASTER"
	RoleFakeArtist     Role = "FAKE_ARTIST"
	RoleArtist         Role = "ARTIST"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// SeesWord reports whether a participant with this role is shown the secret word
func (r Role) SeesWord() bool {
	return r == RoleQuestionMaster || r == RoleArtist
}
