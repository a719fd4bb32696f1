package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Promotion is a wrestling company as stored in the backend.
type Promotion struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	Country *string `json:"country"`
	Region  string  `json:"region,omitempty"`
}

// IsExcludedPromotion reports whether a promotion is one of the majors left
// out of the dataset. Matching is case-insensitive substring containment in
// both directions, so "wwe nxt" and "WWE" both match, as does any name that
// merely contains "tna" or "impact".
func IsExcludedPromotion(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, ex := range excludedPromotions {
		if strings.Contains(n, ex) || strings.Contains(ex, n) {
			return true
		}
	}
	return false
}

// MatchPromotion finds name among known promotions. An exact
// case-insensitive match wins; otherwise the first entry whose name contains,
// or is contained in, name is returned.
func MatchPromotion(name string, known []Promotion) (Promotion, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Promotion{}, false
	}
	for _, p := range known {
		if strings.ToLower(strings.TrimSpace(p.Name)) == n {
			return p, true
		}
	}
	for _, p := range known {
		pn := strings.ToLower(strings.TrimSpace(p.Name))
		if pn == "" {
			continue
		}
		if strings.Contains(n, pn) || strings.Contains(pn, n) {
			return p, true
		}
	}
	return Promotion{}, false
}

// NewPromotion builds an unsaved promotion for a name first seen at loc.
func NewPromotion(name string, loc ParsedLocation) Promotion {
	name = strings.TrimSpace(name)
	return Promotion{
		Name:    name,
		Slug:    Slugify(name),
		Country: loc.Country,
		Region:  RegionFor(loc),
	}
}

// Slugify lowercases, strips accents, turns spaces into hyphens and drops
// everything outside [a-z0-9-].
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
