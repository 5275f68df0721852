package domain

// Phase represents the current phase of a session
type Phase string

const (
	PhaseWaitingForPlayers Phase = "WAITING_FOR_PLAYERS" // Lobby, no round running
	PhaseInProgress        Phase = "IN_PROGRESS"         // Round running, timer may be paused
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseWaitingForPlayers: {PhaseInProgress},
		PhaseInProgress:        {PhaseInProgress, PhaseWaitingForPlayers}, // Restart or end
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
