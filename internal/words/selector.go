package words

import (
	"errors"
	"math/rand"
	"strings"
	"sync"

	"fakeartist/internal/domain"
)

// SetSize is the number of candidate words shown in a random round
const SetSize = 16

// ErrNoEligibleCategory means a word bank has no category with SetSize
// entries. It is a configuration error, not something a player can fix.
var ErrNoEligibleCategory = errors.New("word bank has no category with enough words")

// RandomSource is the subset of *rand.Rand the selector needs
type RandomSource interface {
	Intn(n int) int
}

// Selector picks the word and category for a round
type Selector struct {
	mu   sync.Mutex
	rng  RandomSource
	bank Bank
}

// NewSelector creates a selector over bank
func NewSelector(bank Bank, rng RandomSource) *Selector {
	return &Selector{bank: bank, rng: rng}
}

// NewSeededSelector creates a selector over a math/rand source seeded with seed
func NewSeededSelector(bank Bank, seed int64) *Selector {
	return NewSelector(bank, rand.New(rand.NewSource(seed)))
}

// Chosen validates a word and category typed in by the question master
func (s *Selector) Chosen(word, category string) (*domain.Selection, error) {
	word = strings.TrimSpace(word)
	category = strings.TrimSpace(category)
	if word == "" {
		return nil, domain.ErrEmptyWord
	}
	if category == "" {
		return nil, domain.ErrEmptyCategory
	}
	return &domain.Selection{
		Variant:  domain.VariantQuestionMaster,
		Word:     word,
		Category: category,
	}, nil
}

// RandomSet draws a category with at least SetSize words from the locale's
// bank, then SetSize distinct words of that category, then the secret word
// out of those candidates.
func (s *Selector) RandomSet(locale string) (*domain.Selection, error) {
	bank := s.bank.WordBank(locale)
	if len(EligibleCategories(bank, SetSize)) == 0 {
		return nil, ErrNoEligibleCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Banks are not required to be deduplicated, so the pool is built by
	// distinct text to match EligibleCategories.
	var pool []Entry
	for {
		category := bank[s.rng.Intn(len(bank))].Category
		pool = pool[:0]
		seen := make(map[string]bool)
		for _, e := range bank {
			if e.Category == category && !seen[e.Text] {
				seen[e.Text] = true
				pool = append(pool, e)
			}
		}
		if len(pool) >= SetSize {
			break
		}
	}

	picked := make(map[int]bool, SetSize)
	candidates := make([]string, 0, SetSize)
	for len(candidates) < SetSize {
		i := s.rng.Intn(len(pool))
		if picked[i] {
			continue
		}
		picked[i] = true
		candidates = append(candidates, pool[i].Text)
	}

	return &domain.Selection{
		Variant:    domain.VariantRandom,
		Word:       candidates[s.rng.Intn(len(candidates))],
		Category:   pool[0].Category,
		Candidates: candidates,
	}, nil
}

// Resolve returns the locale whose bank a round in locale would draw from
func (s *Selector) Resolve(locale string) string {
	return s.bank.Resolve(locale)
}
