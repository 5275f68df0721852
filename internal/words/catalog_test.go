package words

import (
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(category string, n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		out[i] = Entry{Text: fmt.Sprintf("%s-%d", category, i), Category: category}
	}
	return out
}

func TestLoadEmbedded(t *testing.T) {
	c, err := LoadEmbedded(BaseLocale)
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "he"}, c.Locales())
	for _, locale := range c.Locales() {
		assert.NotEmpty(t, EligibleCategories(c.WordBank(locale), SetSize), "locale %s", locale)
	}

	counts := EligibleCategories(c.WordBank("en"), 1)
	assert.Equal(t, 20, counts["Animals"])
	assert.Equal(t, 10, counts["Sports"])
}

func TestCatalog_Resolve(t *testing.T) {
	c, err := NewCatalog("en", map[string][]Entry{
		"en": entries("Animals", SetSize),
		"he": entries("חיות", SetSize),
	})
	require.NoError(t, err)

	cases := map[string]string{
		"en":    "en",
		"he":    "he",
		" HE ":  "he",
		"he-IL": "he",
		"he_IL": "he",
		"fr":    "en",
		"":      "en",
	}
	for in, want := range cases {
		assert.Equal(t, want, c.Resolve(in), "Resolve(%q)", in)
	}
	assert.Equal(t, c.WordBank("en"), c.WordBank("de-DE"))
}

func TestNewCatalog_DropsBlankAndDuplicateEntries(t *testing.T) {
	bank := append(entries("Animals", SetSize),
		Entry{Text: " Animals-0 ", Category: "Animals"},
		Entry{Text: "", Category: "Animals"},
		Entry{Text: "Orphan", Category: " "},
	)

	c, err := NewCatalog("en", map[string][]Entry{"en": bank})
	require.NoError(t, err)
	assert.Len(t, c.WordBank("en"), SetSize)
}

func TestNewCatalog_RejectsBankWithoutEligibleCategory(t *testing.T) {
	_, err := NewCatalog("en", map[string][]Entry{
		"en": append(entries("Small", SetSize-1), entries("Tiny", 3)...),
	})
	assert.ErrorIs(t, err, ErrNoEligibleCategory)
}

func TestNewCatalog_RequiresBaseLocale(t *testing.T) {
	_, err := NewCatalog("en", map[string][]Entry{"he": entries("חיות", SetSize)})
	assert.Error(t, err)
}

func TestLoadFS_LocaleFromFileName(t *testing.T) {
	fsys := fstest.MapFS{
		"en.yaml": {Data: []byte(bankYAML("", "Animals", SetSize))},
		"de.yaml": {Data: []byte(bankYAML("", "Tiere", SetSize))},
	}

	c, err := LoadFS(fsys, "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en"}, c.Locales())
	assert.Equal(t, "Tiere", c.WordBank("de")[0].Category)
}

func TestLoadFS_BadYAML(t *testing.T) {
	fsys := fstest.MapFS{"en.yaml": {Data: []byte("categories: [")}}

	_, err := LoadFS(fsys, "en")
	assert.ErrorContains(t, err, "parsing en.yaml")
}

func bankYAML(locale, category string, n int) string {
	out := fmt.Sprintf("locale: %q\ncategories:\n  - name: %s\n    words:\n", locale, category)
	for i := 0; i < n; i++ {
		out += fmt.Sprintf("      - w%d\n", i)
	}
	return out
}
