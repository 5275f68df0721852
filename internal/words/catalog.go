// Package words holds the locale word banks and the round word selector.
package words

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// BaseLocale is used when a requested locale has no word bank
const BaseLocale = "en"

//go:embed data/*.yaml
var embedded embed.FS

// Entry is one word of a word bank
type Entry struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Bank supplies word banks by locale
type Bank interface {
	// WordBank returns the entries for locale, falling back to the base locale
	WordBank(locale string) []Entry
	// Resolve returns the locale whose bank WordBank(locale) would return
	Resolve(locale string) string
}

// bankFile is the on-disk YAML layout of one locale
type bankFile struct {
	Locale     string `yaml:"locale"`
	Categories []struct {
		Name  string   `yaml:"name"`
		Words []string `yaml:"words"`
	} `yaml:"categories"`
}

// Catalog is a read-only set of word banks keyed by locale
type Catalog struct {
	base  string
	banks map[string][]Entry
}

// LoadEmbedded loads the word banks compiled into the binary
func LoadEmbedded(base string) (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, base)
}

// LoadDir loads every *.yaml word bank in dir
func LoadDir(dir, base string) (*Catalog, error) {
	return LoadFS(os.DirFS(dir), base)
}

// LoadFS loads every *.yaml word bank at the root of fsys
func LoadFS(fsys fs.FS, base string) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}

	banks := make(map[string][]Entry, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		var f bankFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}

		locale := normalizeLocale(f.Locale)
		if locale == "" {
			locale = normalizeLocale(strings.TrimSuffix(path.Base(name), ".yaml"))
		}

		for _, c := range f.Categories {
			for _, w := range c.Words {
				banks[locale] = append(banks[locale], Entry{Text: w, Category: c.Name})
			}
		}
	}

	return NewCatalog(base, banks)
}

// NewCatalog builds a catalog from in-memory banks. Blank and duplicate
// entries are dropped, and every locale must contain at least one category
// large enough for a random word set.
func NewCatalog(base string, banks map[string][]Entry) (*Catalog, error) {
	base = normalizeLocale(base)
	if base == "" {
		base = BaseLocale
	}

	c := &Catalog{base: base, banks: make(map[string][]Entry, len(banks))}
	for locale, entries := range banks {
		locale = normalizeLocale(locale)
		cleaned := dedupe(entries)
		if len(EligibleCategories(cleaned, SetSize)) == 0 {
			return nil, fmt.Errorf("locale %q: %w", locale, ErrNoEligibleCategory)
		}
		c.banks[locale] = cleaned
	}

	if _, ok := c.banks[base]; !ok {
		return nil, fmt.Errorf("base locale %q has no word bank", base)
	}

	return c, nil
}

// WordBank returns the entries for locale, falling back to the base locale
func (c *Catalog) WordBank(locale string) []Entry {
	return c.banks[c.Resolve(locale)]
}

// Resolve maps a requested locale onto a loaded one. "he-IL" resolves to
// "he" when only the language bank exists; unknown locales map to the base.
func (c *Catalog) Resolve(locale string) string {
	locale = normalizeLocale(locale)
	if _, ok := c.banks[locale]; ok {
		return locale
	}
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		if _, ok := c.banks[locale[:i]]; ok {
			return locale[:i]
		}
	}
	return c.base
}

// Locales lists the loaded locales in sorted order
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.banks))
	for locale := range c.banks {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// EligibleCategories counts distinct words per category and keeps the
// categories with at least minSize of them
func EligibleCategories(entries []Entry, minSize int) map[string]int {
	counts := make(map[string]int)
	seen := make(map[Entry]bool)
	for _, e := range entries {
		if seen[e] {
			continue
		}
		seen[e] = true
		counts[e.Category]++
	}

	for category, n := range counts {
		if n < minSize {
			delete(counts, category)
		}
	}
	return counts
}

func dedupe(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	seen := make(map[Entry]bool, len(entries))
	for _, e := range entries {
		e.Text = strings.TrimSpace(e.Text)
		e.Category = strings.TrimSpace(e.Category)
		if e.Text == "" || e.Category == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.TrimSpace(locale))
}
