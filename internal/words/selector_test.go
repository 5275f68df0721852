package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakeartist/internal/domain"
)

// stubBank serves banks without the catalog's load-time checks
type stubBank map[string][]Entry

func (b stubBank) WordBank(locale string) []Entry { return b[b.Resolve(locale)] }

func (b stubBank) Resolve(locale string) string {
	if _, ok := b[locale]; ok {
		return locale
	}
	return BaseLocale
}

func TestSelector_Chosen(t *testing.T) {
	s := NewSeededSelector(stubBank{}, 1)

	sel, err := s.Chosen("  Lion ", " Animals")
	require.NoError(t, err)
	assert.Equal(t, &domain.Selection{Variant: domain.VariantQuestionMaster, Word: "Lion", Category: "Animals"}, sel)

	_, err = s.Chosen("  ", "Animals")
	assert.ErrorIs(t, err, domain.ErrEmptyWord)

	_, err = s.Chosen("Lion", "")
	assert.ErrorIs(t, err, domain.ErrEmptyCategory)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSelector_RandomSet(t *testing.T) {
	c, err := LoadEmbedded(BaseLocale)
	require.NoError(t, err)
	s := NewSeededSelector(c, 5)

	for _, locale := range []string{"en", "he", "he-IL", "xx", ""} {
		eligible := EligibleCategories(c.WordBank(locale), SetSize)

		for i := 0; i < 300; i++ {
			sel, err := s.RandomSet(locale)
			require.NoError(t, err)

			assert.Equal(t, domain.VariantRandom, sel.Variant)
			require.Len(t, sel.Candidates, SetSize)
			assert.Contains(t, eligible, sel.Category, "category below set size drawn")
			assert.Contains(t, sel.Candidates, sel.Word)

			seen := make(map[string]bool, SetSize)
			for _, w := range sel.Candidates {
				require.False(t, seen[w], "duplicate candidate %q", w)
				seen[w] = true
				assert.Contains(t, c.WordBank(locale), Entry{Text: w, Category: sel.Category})
			}
		}
	}
}

func TestSelector_RandomSet_SkipsSmallCategories(t *testing.T) {
	bank := stubBank{
		"en": append(entries("Big", SetSize), entries("Small", 200)[:SetSize-1]...),
	}
	s := NewSeededSelector(bank, 9)

	for i := 0; i < 200; i++ {
		sel, err := s.RandomSet("en")
		require.NoError(t, err)
		require.Equal(t, "Big", sel.Category)
		// The whole category is the set when it has exactly SetSize words
		assert.ElementsMatch(t, texts(entries("Big", SetSize)), sel.Candidates)
	}
}

func TestSelector_RandomSet_DuplicateBankEntries(t *testing.T) {
	dup := make([]Entry, 0, 40)
	for i := 0; i < 40; i++ {
		dup = append(dup, Entry{Text: "Same", Category: "Dup"})
	}
	big := entries("Big", SetSize)
	// Big listed twice so a pool counted with duplicates would hold 32 entries
	bank := stubBank{"en": append(append(append([]Entry{}, dup...), big...), big...)}

	for _, seed := range []int64{1, 2, 3, 4, 5} {
		s := NewSeededSelector(bank, seed)
		for i := 0; i < 50; i++ {
			sel, err := s.RandomSet("en")
			require.NoError(t, err)
			require.Equal(t, "Big", sel.Category)
			require.Len(t, sel.Candidates, SetSize)
			assert.ElementsMatch(t, texts(big), sel.Candidates)
		}
	}
}

func TestSelector_RandomSet_NoEligibleCategory(t *testing.T) {
	s := NewSeededSelector(stubBank{"en": entries("Small", 3)}, 1)

	_, err := s.RandomSet("en")
	assert.ErrorIs(t, err, ErrNoEligibleCategory)

	_, err = NewSeededSelector(stubBank{}, 1).RandomSet("en")
	assert.ErrorIs(t, err, ErrNoEligibleCategory)
}

func texts(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Text
	}
	return out
}
