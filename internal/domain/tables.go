package domain

import (
	"regexp"
	"sort"
	"strings"
)

// CountryUSA is the canonical country value for domestic events.
const CountryUSA = "USA"

// stateNames maps lowercase full US state names to USPS codes. The value set
// is exactly the 50 states plus DC.
var stateNames = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"district of columbia": "DC",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
}

// stateCodes is the closed set of USPS codes, derived from stateNames.
var stateCodes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(stateNames))
	for _, code := range stateNames {
		m[code] = struct{}{}
	}
	return m
}()

// exclusionCountries lists non-USA country and territory fragments. A hit
// anywhere in a raw location forces non-USA classification.
var exclusionCountries = []string{
	"Canada", "Mexico", "Japan", "UK", "United Kingdom", "England", "Scotland",
	"Wales", "Ireland", "Germany", "Deutschland", "France", "Italy", "Spain",
	"Austria", "Switzerland", "Netherlands", "Belgium", "Poland", "Czech",
	"Sweden", "Norway", "Finland", "Denmark", "Portugal", "Romania", "Hungary",
	"Bulgaria", "Croatia", "Serbia", "Greece", "Turkey", "Russia", "Ukraine",
	"Australia", "New Zealand", "Brazil", "Argentina", "Chile", "Colombia",
	"Peru", "India", "China", "Korea", "Philippines", "Singapore", "Malaysia",
	"Thailand", "Indonesia", "Vietnam", "Taiwan", "Hong Kong", "South Africa",
	"Nigeria", "Kenya", "Saudi-Arabia", "Saudi Arabia", "UAE",
	"United Arab Emirates", "Israel", "Puerto Rico",
}

// usPlaceCollisions are US place words that begin with an exclusion
// fragment ("India", "UK") and are masked with the state names.
var usPlaceCollisions = []string{"Indianapolis", "Indianola", "Indian", "Ukiah"}

var (
	// exclusionRe matches a fragment at the start of a word, so "Czech"
	// finds "Czechia" and "UK" finds "Leeds, UK" but not "Milwaukee".
	exclusionRe = alternation(exclusionCountries, false)

	// domesticRe matches full state names and usPlaceCollisions so they can
	// be masked before the exclusion scan; otherwise "New Mexico" would read
	// as Mexico and "Indianapolis" as India.
	domesticRe = alternation(append(keys(stateNames), usPlaceCollisions...), true)
)

// stateRegions buckets USPS codes into the regions used by the front end.
var stateRegions = map[string]string{
	"NY": "Northeast", "NJ": "Northeast", "CT": "Northeast", "MA": "Northeast",
	"RI": "Northeast", "NH": "Northeast", "VT": "Northeast", "ME": "Northeast",

	"PA": "Mid Atlantic", "DE": "Mid Atlantic", "MD": "Mid Atlantic",
	"DC": "Mid Atlantic", "VA": "Mid Atlantic", "WV": "Mid Atlantic",

	"NC": "Southeast", "SC": "Southeast", "GA": "Southeast", "FL": "Southeast",
	"AL": "Southeast", "MS": "Southeast", "TN": "Southeast", "KY": "Southeast",

	"TX": "South", "LA": "South", "AR": "South", "OK": "South",

	"OH": "Midwest", "MI": "Midwest", "IN": "Midwest", "IL": "Midwest",
	"WI": "Midwest", "MN": "Midwest", "IA": "Midwest", "MO": "Midwest",
	"KS": "Midwest", "NE": "Midwest", "SD": "Midwest", "ND": "Midwest",

	"CA": "West", "NV": "West", "AZ": "West", "NM": "West", "CO": "West",
	"UT": "West", "WY": "West", "MT": "West", "ID": "West", "HI": "West",

	"WA": "Pacific Northwest", "OR": "Pacific Northwest", "AK": "Pacific Northwest",
}

// countryRegions buckets lowercase country names. Anything unlisted falls
// into RegionInternational.
var countryRegions = map[string]string{
	"canada": "Canada",
	"mexico": "Mexico",
	"japan":  "Japan",

	"uk": "United Kingdom", "united kingdom": "United Kingdom", "england": "United Kingdom",
	"scotland": "United Kingdom", "wales": "United Kingdom", "northern ireland": "United Kingdom",

	"germany": "Europe", "deutschland": "Europe", "france": "Europe", "italy": "Europe",
	"spain": "Europe", "austria": "Europe", "switzerland": "Europe", "netherlands": "Europe",
	"belgium": "Europe", "poland": "Europe", "czech republic": "Europe", "czechia": "Europe",
	"sweden": "Europe", "norway": "Europe", "finland": "Europe", "denmark": "Europe",
	"ireland": "Europe", "portugal": "Europe", "romania": "Europe", "hungary": "Europe",
	"bulgaria": "Europe", "croatia": "Europe", "serbia": "Europe", "greece": "Europe",
	"turkey": "Europe",

	"australia": "Australia & New Zealand", "new zealand": "Australia & New Zealand",

	"brazil": "Latin America", "argentina": "Latin America", "chile": "Latin America",
	"colombia": "Latin America", "peru": "Latin America",

	"india": "Asia", "china": "Asia", "south korea": "Asia", "korea": "Asia",
	"philippines": "Asia", "singapore": "Asia", "malaysia": "Asia", "thailand": "Asia",
	"indonesia": "Asia", "vietnam": "Asia", "taiwan": "Asia", "hong kong": "Asia",

	"south africa": "Africa", "nigeria": "Africa", "kenya": "Africa",

	"saudi arabia": "Middle East", "saudi-arabia": "Middle East", "uae": "Middle East",
	"united arab emirates": "Middle East", "israel": "Middle East",

	"puerto rico": "Puerto Rico",
}

// RegionInternational is the bucket for non-USA countries with no mapping.
const RegionInternational = "International"

// excludedPromotions are the major companies deliberately left out of the
// dataset, lowercase.
var excludedPromotions = []string{
	"world wrestling entertainment", "wwe", "wwe nxt", "nxt", "wwe raw",
	"wwe smackdown", "wwe speed",
	"all elite wrestling", "aew", "aew dynamite", "aew collision", "aew rampage",
	"total nonstop action wrestling", "tna wrestling", "tna",
	"impact wrestling", "impact",
}

// IsStateCode reports whether s is one of the 51 USPS codes. Case-sensitive.
func IsStateCode(s string) bool {
	_, ok := stateCodes[s]
	return ok
}

// StateCodeForName returns the USPS code for a full state name, ignoring case
// and surrounding whitespace.
func StateCodeForName(name string) (string, bool) {
	code, ok := stateNames[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// RegionForState returns the region bucket for a USPS code, or "".
func RegionForState(code string) string {
	return stateRegions[code]
}

// RegionForCountry returns the region bucket for a non-USA country name.
// Unknown names map to RegionInternational; USA and blank map to "".
func RegionForCountry(country string) string {
	c := strings.ToLower(strings.TrimSpace(country))
	if c == "" || c == "usa" || c == "united states" {
		return ""
	}
	if r, ok := countryRegions[c]; ok {
		return r
	}
	return RegionInternational
}

// ExcludedPromotions returns a copy of the excluded promotion list.
func ExcludedPromotions() []string {
	return append([]string(nil), excludedPromotions...)
}

// alternation builds a case-insensitive regexp matching any of words from a
// word start. wholeWord also requires a word end.
func alternation(words []string, wholeWord bool) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	expr := `(?i)\b(?:` + strings.Join(quoted, "|") + `)`
	if wholeWord {
		expr += `\b`
	}
	return regexp.MustCompile(expr)
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
