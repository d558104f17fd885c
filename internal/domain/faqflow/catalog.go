package faqflow

import (
	"sort"
	"strings"
	"unicode"
)

// Catalog is an ordered, immutable-at-runtime list of FAQ entries with
// positions exactly 1..N.
type Catalog struct {
	entries  []Entry
	keywords []map[string]struct{}
}

// NewCatalog builds a catalog from raw entries, assigning positions in order
// and deriving keywords from question text when none are provided.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries:  make([]Entry, 0, len(entries)),
		keywords: make([]map[string]struct{}, 0, len(entries)),
	}
	for i, entry := range entries {
		entry.Position = i + 1
		if len(entry.Keywords) == 0 {
			entry.Keywords = tokenize(entry.Question)
		}
		set := make(map[string]struct{}, len(entry.Keywords))
		for _, kw := range entry.Keywords {
			set[strings.ToLower(kw)] = struct{}{}
		}
		c.entries = append(c.entries, entry)
		c.keywords = append(c.keywords, set)
	}
	return c
}

// Size returns the number of entries.
func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Get returns the entry at the given 1-based position.
func (c *Catalog) Get(position int) (Entry, bool) {
	if c == nil || position < 1 || position > len(c.entries) {
		return Entry{}, false
	}
	return c.entries[position-1], true
}

// Entries returns the ordered entry list.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Suggest scores entries by case-insensitive token overlap with the query and
// returns at most limit entries with a positive score, ties broken by catalog
// position ascending.
func (c *Catalog) Suggest(query string, limit int) []Entry {
	if c == nil || limit <= 0 {
		return nil
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	type scored struct {
		entry Entry
		score int
	}
	var matches []scored
	for i, entry := range c.entries {
		score := 0
		for _, token := range tokens {
			if _, ok := c.keywords[i][token]; ok {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{entry: entry, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].entry.Position < matches[j].entry.Position
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Entry, len(matches))
	for i, m := range matches {
		out[i] = m.entry
	}
	return out
}

// tokenize lowercases text, treats punctuation as whitespace, and drops
// tokens too short to be meaningful keywords.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
