package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortTitleName(t *testing.T) {
	tests := map[string]string{
		"GCW World Championship":               "World",
		"AAW Heavyweight Championship":         "Heavyweight",
		"wXw World Tag Team Championship":      "Tag Team",
		"Shimmer Women's Championship":         "Women's",
		"ROH World Television Championship":    "TV",
		"GCW Ultraviolent Championship":        "GCW Ultraviolent Championship",
		"CZW World Heavyweight Championship":   "Heavyweight",
		"PWG World Cruiserweight Championship": "Cruiserweight",
	}
	for in, want := range tests {
		assert.Equal(t, want, ShortTitleName(in), in)
	}
}

func TestNewChampionship(t *testing.T) {
	c := NewChampionship("p1", Title{Name: "GCW Tag Team Championship", Champions: []string{"A", "B"}}, 2, [2]string{"w1", ""})

	assert.Equal(t, "p1", c.PromotionID)
	assert.Equal(t, "Tag Team", c.ShortName)
	assert.Equal(t, "w1", *c.ChampionID)
	assert.Nil(t, c.Champion2ID)
	assert.True(t, c.IsActive)
	assert.Equal(t, 2, c.SortOrder)
}

func TestPlanChampionUpdate(t *testing.T) {
	single := Title{Name: "World", Champions: []string{"Mance Warner"}}
	pair := Title{Name: "Tag", Champions: []string{"A", "B"}}

	tests := []struct {
		name   string
		stored Championship
		title  Title
		ids    [2]string
		want   ChampionshipPatch
	}{
		{
			name:   "unchanged",
			stored: Championship{ChampionID: strPtr("w1")},
			title:  single,
			ids:    [2]string{"w1", ""},
			want:   ChampionshipPatch{},
		},
		{
			name:   "new champion",
			stored: Championship{ChampionID: strPtr("w1")},
			title:  single,
			ids:    [2]string{"w2", ""},
			want:   ChampionshipPatch{ChampionID: strPtr("w2")},
		},
		{
			name:   "unresolved champion keeps stored",
			stored: Championship{ChampionID: strPtr("w1")},
			title:  single,
			ids:    [2]string{"", ""},
			want:   ChampionshipPatch{},
		},
		{
			name:   "tag team partner set",
			stored: Championship{ChampionID: strPtr("w1")},
			title:  pair,
			ids:    [2]string{"w1", "w3"},
			want:   ChampionshipPatch{Champion2ID: strPtr("w3")},
		},
		{
			name:   "single champion clears partner",
			stored: Championship{ChampionID: strPtr("w1"), Champion2ID: strPtr("w3")},
			title:  single,
			ids:    [2]string{"w1", ""},
			want:   ChampionshipPatch{ClearChampion2: true},
		},
		{
			name:   "unresolved partner is not cleared",
			stored: Championship{ChampionID: strPtr("w1"), Champion2ID: strPtr("w3")},
			title:  pair,
			ids:    [2]string{"w1", ""},
			want:   ChampionshipPatch{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanChampionUpdate(tt.stored, tt.title, tt.ids)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Empty(), got.Empty())
		})
	}
}

func TestFindChampionship(t *testing.T) {
	stored := []Championship{{ID: "c1", Name: "GCW World Championship"}}

	got, ok := FindChampionship("gcw world championship", stored)
	assert.True(t, ok)
	assert.Equal(t, "c1", got.ID)

	_, ok = FindChampionship("GCW Tag Team Championship", stored)
	assert.False(t, ok)
}

func TestPickWrestler(t *testing.T) {
	candidates := []Wrestler{{ID: "1", Name: "Nick Gage Jr."}, {ID: "2", Name: "Nick Gage"}}

	got, ok := PickWrestler("nick gage", candidates)
	assert.True(t, ok)
	assert.Equal(t, "2", got.ID)

	got, ok = PickWrestler("Effy", []Wrestler{{ID: "9", Name: "EFFY"}})
	assert.True(t, ok)
	assert.Equal(t, "9", got.ID)

	got, ok = PickWrestler("Allie Katch", []Wrestler{{ID: "3", Name: "Allie Katch Fan"}})
	assert.True(t, ok, "a lone candidate is accepted")
	assert.Equal(t, "3", got.ID)

	_, ok = PickWrestler("Jordan", []Wrestler{{ID: "4", Name: "Jordan Oliver"}, {ID: "5", Name: "Jordan Blade"}})
	assert.False(t, ok)

	_, ok = PickWrestler("Anyone", nil)
	assert.False(t, ok)
}

func TestIsVacant(t *testing.T) {
	assert.True(t, IsVacant(" Vacant "))
	assert.False(t, IsVacant("Vacantia"))
}
