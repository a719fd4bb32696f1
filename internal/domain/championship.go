package domain

import "strings"

// Title is a championship as listed on a promotion's current-titles page,
// with the names of its reigning champions in listed order.
type Title struct {
	Name      string
	Champions []string
}

// Championship is a promotion's title as stored in the backend.
type Championship struct {
	ID          string
	PromotionID string
	Name        string
	ShortName   string
	ChampionID  *string
	Champion2ID *string
	IsActive    bool
	SortOrder   int
}

// Wrestler is a stored wrestler record.
type Wrestler struct {
	ID   string
	Name string
	Slug string
}

// ChampionshipPatch is a partial update of a stored championship. Nil
// pointers leave the column unchanged.
type ChampionshipPatch struct {
	ChampionID     *string
	Champion2ID    *string
	ClearChampion2 bool
}

// Empty reports whether the patch changes nothing.
func (p ChampionshipPatch) Empty() bool {
	return p.ChampionID == nil && p.Champion2ID == nil && !p.ClearChampion2
}

var shortTitleNames = []struct{ long, short string }{
	{"heavyweight championship", "Heavyweight"},
	{"world championship", "World"},
	{"tag team championship", "Tag Team"},
	{"women's championship", "Women's"},
	{"television championship", "TV"},
	{"cruiserweight championship", "Cruiserweight"},
}

// ShortTitleName abbreviates well-known title kinds ("GCW World Championship"
// becomes "World"). Other names are returned unchanged.
func ShortTitleName(name string) string {
	lower := strings.ToLower(name)
	for _, s := range shortTitleNames {
		if strings.Contains(lower, s.long) {
			return s.short
		}
	}
	return name
}

// NewChampionship builds an unsaved, active championship for a scraped title.
// championIDs holds the resolved wrestler IDs, "" where a name did not match.
func NewChampionship(promotionID string, t Title, sortOrder int, championIDs [2]string) Championship {
	return Championship{
		PromotionID: promotionID,
		Name:        t.Name,
		ShortName:   ShortTitleName(t.Name),
		ChampionID:  nonEmpty(championIDs[0]),
		Champion2ID: nonEmpty(championIDs[1]),
		IsActive:    true,
		SortOrder:   sortOrder,
	}
}

// PlanChampionUpdate compares a stored championship with the current reign.
// A resolved champion that differs from the stored one is set; an unresolved
// name never clears a stored champion. The second slot is cleared when the
// title now has a single champion.
func PlanChampionUpdate(stored Championship, t Title, championIDs [2]string) ChampionshipPatch {
	var p ChampionshipPatch
	if id := championIDs[0]; id != "" && deref(stored.ChampionID) != id {
		p.ChampionID = strPtr(id)
	}
	if id := championIDs[1]; id != "" && deref(stored.Champion2ID) != id {
		p.Champion2ID = strPtr(id)
	}
	if championIDs[1] == "" && len(t.Champions) < 2 && stored.Champion2ID != nil {
		p.ClearChampion2 = true
	}
	return p
}

// FindChampionship returns the stored championship with the given name,
// ignoring case.
func FindChampionship(name string, stored []Championship) (Championship, bool) {
	for _, c := range stored {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Championship{}, false
}

// PickWrestler chooses the match for name among fuzzy search candidates: an
// exact case-insensitive name wins, otherwise a lone candidate is accepted.
func PickWrestler(name string, candidates []Wrestler) (Wrestler, bool) {
	for _, w := range candidates {
		if strings.EqualFold(w.Name, name) {
			return w, true
		}
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return Wrestler{}, false
}

// IsVacant reports whether a champion entry marks a vacant title.
func IsVacant(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "vacant")
}
