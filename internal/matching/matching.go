// Package matching resolves free-form instrument names, such as mutual fund
// display names from a broker export, against a catalog of feed identifiers.
package matching

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum similarity a fuzzy match must exceed.
// Changing it changes which prices get attached to which funds.
const DefaultThreshold = 0.7

// Entry is one catalog record: a display name and the feed identifier it maps to.
type Entry struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Match is the best catalog entry found for a query.
type Match struct {
	Entry
	Similarity float64
	Exact      bool
}

// Normalize case-folds s and strips every character that is not a letter or digit.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity returns (maxLen - editDistance) / maxLen over the normalized forms of a and b.
// Two strings that normalize to empty are considered dissimilar.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	return normalizedSimilarity(na, nb)
}

func normalizedSimilarity(na, nb string) float64 {
	maxLen := max(len([]rune(na)), len([]rune(nb)))
	if maxLen == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(na, nb)
	return float64(maxLen-distance) / float64(maxLen)
}

// Catalog is an in-memory index of feed entries.
type Catalog struct {
	entries    []Entry
	normalized []string
	exact      map[string]int
}

// NewCatalog indexes entries. Later duplicates of an exact name do not replace earlier ones.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries:    entries,
		normalized: make([]string, len(entries)),
		exact:      make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		c.normalized[i] = Normalize(e.Name)
		if _, ok := c.exact[e.Name]; !ok {
			c.exact[e.Name] = i
		}
	}
	return c
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the catalog entries in index order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// BestMatch returns the entry whose name exactly equals query, or failing that
// the entry with the highest similarity strictly above threshold. Ties keep the
// earliest entry. The boolean is false when nothing qualifies.
func (c *Catalog) BestMatch(query string, threshold float64) (Match, bool) {
	if i, ok := c.exact[query]; ok {
		return Match{Entry: c.entries[i], Similarity: 1, Exact: true}, true
	}

	nq := Normalize(query)
	if nq == "" {
		return Match{}, false
	}

	best, bestScore := -1, 0.0
	for i, ne := range c.normalized {
		score := normalizedSimilarity(nq, ne)
		if score > bestScore {
			best, bestScore = i, score
		}
		if score == 1 {
			break
		}
	}

	if best < 0 || bestScore <= threshold {
		return Match{Similarity: bestScore}, false
	}
	return Match{Entry: c.entries[best], Similarity: bestScore}, true
}
