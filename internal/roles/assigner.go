// Package roles draws the hidden roles and the turn order for a round.
package roles

import (
	"math/rand"
	"sync"

	"fakeartist/internal/domain"
)

// DefaultFakeArtistFirstBiasPercent keeps the fake artist in the first slot
// in almost every round without making it certain.
const DefaultFakeArtistFirstBiasPercent = 99

// RandomSource is the subset of *rand.Rand the assigner needs
type RandomSource interface {
	Intn(n int) int
}

// Assigner produces role and turn-order assignments. It is safe for
// concurrent use; draws are serialized on the shared random source.
type Assigner struct {
	mu          sync.Mutex
	rng         RandomSource
	biasPercent int
}

// NewAssigner creates an assigner. biasPercent is clamped to [0,100].
func NewAssigner(rng RandomSource, biasPercent int) *Assigner {
	if biasPercent < 0 {
		biasPercent = 0
	}
	if biasPercent > 100 {
		biasPercent = 100
	}
	return &Assigner{rng: rng, biasPercent: biasPercent}
}

// NewSeededAssigner creates an assigner over a math/rand source seeded with seed
func NewSeededAssigner(seed int64, biasPercent int) *Assigner {
	return NewAssigner(rand.New(rand.NewSource(seed)), biasPercent)
}

// BiasPercent returns the configured fake-artist-first bias
func (a *Assigner) BiasPercent() int {
	return a.biasPercent
}

// Assign draws roles for the ordered participant IDs. questionMasterID may be
// empty, in which case every participant is a regular player.
func (a *Assigner) Assign(participantIDs []string, questionMasterID string) (*domain.Assignment, error) {
	if len(participantIDs) < 2 {
		return nil, domain.ErrInsufficientPlayers
	}

	regular := make([]string, 0, len(participantIDs))
	foundQM := questionMasterID == ""
	for _, id := range participantIDs {
		if id == questionMasterID {
			foundQM = true
			continue
		}
		regular = append(regular, id)
	}
	if !foundQM {
		return nil, domain.ErrParticipantNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	m := len(regular)
	fakeIdx := a.rng.Intn(m)
	firstIdx := a.rng.Intn(m)

	turns := a.shuffledTurns(m)
	a.placeFakeArtist(turns, fakeIdx)

	assignment := &domain.Assignment{
		QuestionMasterID: questionMasterID,
		FakeArtistID:     regular[fakeIdx],
		FirstPlayerID:    regular[firstIdx],
		TurnOrder:        make(map[string]int, m),
	}
	for i, id := range regular {
		assignment.TurnOrder[id] = turns[i]
	}

	return assignment, nil
}

// shuffledTurns returns a Fisher-Yates permutation of 1..m
func (a *Assigner) shuffledTurns(m int) []int {
	turns := make([]int, m)
	for i := range turns {
		turns[i] = i + 1
	}
	for i := m - 1; i > 0; i-- {
		j := a.rng.Intn(i + 1)
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}

// placeFakeArtist forces turn 1 onto the fake artist, then demotes it in the
// (100-bias)% of rounds where the d100 roll is not below the bias.
func (a *Assigner) placeFakeArtist(turns []int, fakeIdx int) {
	m := len(turns)
	if m < 2 {
		return
	}

	for i, turn := range turns {
		if turn == 1 {
			turns[i], turns[fakeIdx] = turns[fakeIdx], turns[i]
			break
		}
	}

	roll := a.rng.Intn(100)
	if roll < a.biasPercent {
		return
	}

	other := a.rng.Intn(m - 1)
	if other >= fakeIdx {
		other++
	}
	turns[fakeIdx], turns[other] = turns[other], turns[fakeIdx]
}
