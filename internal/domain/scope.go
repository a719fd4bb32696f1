package domain

import (
	"fmt"
	"strings"
	"time"
)

// Scope selects which events a scrape keeps by location.
type Scope string

const (
	// ScopeUSA keeps events classified with country USA. It is the default.
	ScopeUSA Scope = "usa"
	// ScopeInternational keeps every event not classified as USA, including
	// those whose country could not be determined.
	ScopeInternational Scope = "international"
	// ScopeAll keeps every event regardless of location.
	ScopeAll Scope = "all"
)

// ParseScope validates a scope name, ignoring case.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScopeUSA, ScopeInternational, ScopeAll:
		return sc, nil
	default:
		return "", fmt.Errorf("unknown scope %q (want usa, international, or all)", s)
	}
}

// Includes reports whether a classified location belongs to the scope.
// Undetermined locations count as international.
func (s Scope) Includes(loc ParsedLocation) bool {
	switch s {
	case ScopeUSA:
		return loc.IsUSA()
	case ScopeInternational:
		return !loc.IsUSA()
	case ScopeAll:
		return true
	default:
		return false
	}
}

// RegionFor returns the region bucket of a location: the state region for
// USA events, the country bucket otherwise, and "" when nothing is known.
func RegionFor(loc ParsedLocation) string {
	if loc.IsUSA() {
		return RegionForState(deref(loc.State))
	}
	return RegionForCountry(deref(loc.Country))
}

// Window is the inclusive date range of events a scrape keeps.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow starts at the calendar day of now (UTC) and spans days forward.
func NewWindow(now time.Time, days int) Window {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Window{From: from, To: from.AddDate(0, 0, days)}
}

// Past reports whether d falls before the window.
func (w Window) Past(d time.Time) bool {
	return d.Before(w.From)
}

// Beyond reports whether d falls after the window.
func (w Window) Beyond(d time.Time) bool {
	return d.After(w.To)
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	return !w.Past(d) && !w.Beyond(d)
}
