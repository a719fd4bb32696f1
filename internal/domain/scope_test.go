package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	s, err := ParseScope(" USA ")
	require.NoError(t, err)
	assert.Equal(t, ScopeUSA, s)

	_, err = ParseScope("europe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "europe")
}

func TestScopeIncludes(t *testing.T) {
	usa := ClassifyLocation("Nashville, TN")
	uk := ClassifyLocation("London, England")
	unknown := ClassifyLocation("Some City")

	assert.True(t, ScopeUSA.Includes(usa))
	assert.False(t, ScopeUSA.Includes(uk))
	assert.False(t, ScopeUSA.Includes(unknown))

	assert.False(t, ScopeInternational.Includes(usa))
	assert.True(t, ScopeInternational.Includes(uk))
	assert.True(t, ScopeInternational.Includes(unknown))

	assert.True(t, ScopeAll.Includes(unknown))
	assert.False(t, Scope("bogus").Includes(usa))
}

func TestRegionFor(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Nashville, TN", "Southeast"},
		{"Seattle, Washington, USA", "Pacific Northwest"},
		{"Somewhere, USA", ""},
		{"London, England", "United Kingdom"},
		{"Berlin, Germany", "Europe"},
		{"Moscow, Russia", RegionInternational},
		{"Some City", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, RegionFor(ClassifyLocation(tt.raw)))
		})
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 17, 45, 0, 0, time.UTC)
	w := NewWindow(now, 30)

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), w.To)

	assert.True(t, w.Contains(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(w.To))
	assert.True(t, w.Past(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Beyond(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)))
}
