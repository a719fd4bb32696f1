package domain

import (
	"strings"
	"unicode"
)

// ParsedLocation is the structured form of a free-text event location.
// Nil fields serialize as JSON null and mean "unknown".
//
// State is only ever a USPS code and implies Country == "USA". The
// province/region segment of a non-USA location is kept in Province.
type ParsedLocation struct {
	City     *string `json:"city"`
	State    *string `json:"state"`
	Country  *string `json:"country"`
	Province *string `json:"province,omitempty"`
}

// IsUSA reports whether the location was classified as domestic.
func (l ParsedLocation) IsUSA() bool {
	return l.Country != nil && *l.Country == CountryUSA
}

// Undetermined reports whether no country could be inferred.
func (l ParsedLocation) Undetermined() bool {
	return l.Country == nil
}

// ClassifyLocation maps a "City, Region, Country" string to a ParsedLocation.
//
// Rules, in order:
//  1. Split on commas and trim. City is the first segment; an empty first
//     segment (", Texas") leaves City nil rather than "".
//  2. A known non-USA country fragment starting a word anywhere in the input
//     forces non-USA. Full state names are masked first.
//  3. Otherwise the input is USA if it contains "USA" or "United States",
//     a whitespace token equal to a state code, or a segment equal to a full
//     state name. With no signal the country stays nil.
//  4. For USA, the state is the first full name or code found in segments[1:].
//  5. For non-USA, the country is the last segment and the province the
//     second when there are at least three.
//
// A single segment never yields a state or country. The function is total
// and safe for concurrent use.
func ClassifyLocation(raw string) ParsedLocation {
	if strings.TrimSpace(raw) == "" {
		return ParsedLocation{}
	}

	segments := splitSegments(raw)

	var loc ParsedLocation
	loc.City = nonEmpty(segments[0])
	if len(segments) < 2 {
		return loc
	}

	if hasExclusionCountry(raw) {
		return withForeignCountry(loc, segments)
	}

	if !hasUSASignal(raw, segments) {
		return loc
	}

	loc.Country = strPtr(CountryUSA)
	loc.State = extractState(segments[1:])
	return loc
}

// splitSegments splits on commas and trims. Segments without any letter or
// digit become "" but keep their position.
func splitSegments(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !strings.ContainsFunc(p, isAlnum) {
			p = ""
		}
		parts[i] = p
	}
	return parts
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func hasExclusionCountry(raw string) bool {
	masked := domesticRe.ReplaceAllStringFunc(raw, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
	return exclusionRe.MatchString(masked)
}

func hasUSASignal(raw string, segments []string) bool {
	if strings.Contains(raw, "USA") || strings.Contains(raw, "United States") {
		return true
	}
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if _, ok := StateCodeForName(seg); ok {
			return true
		}
		for _, tok := range strings.Fields(seg) {
			if IsStateCode(strings.ToUpper(tok)) {
				return true
			}
		}
	}
	return false
}

func extractState(segments []string) *string {
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if code, ok := StateCodeForName(seg); ok {
			return strPtr(code)
		}
		for _, tok := range strings.Fields(seg) {
			if code := strings.ToUpper(tok); IsStateCode(code) {
				return strPtr(code)
			}
		}
	}
	return nil
}

func withForeignCountry(loc ParsedLocation, segments []string) ParsedLocation {
	loc.Country = nonEmpty(segments[len(segments)-1])
	if len(segments) >= 3 {
		loc.Province = nonEmpty(segments[1])
	}
	return loc
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strPtr(s string) *string {
	return &s
}

// deref returns the pointed-to string or "".
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
