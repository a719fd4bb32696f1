// Package domain models upcoming professional-wrestling events scraped from
// the Cagematch event database.
//
// # Listing Rows
//
// The Cagematch card listing (?id=1&view=cards) is a table with one event per
// row. The columns used are:
//
//	cells[1]  date, DD.MM.YYYY             e.g. "14.03.2026"
//	cells[2]  promotion logo link + event link
//	cells[3]  free-text location           e.g. "Nashville, Tennessee, USA"
//
// Links carry the page kind in "id" and the record number in "nr":
// id=1 is an event, id=8 a promotion. See [ParseRow].
//
// # Location Classification
//
// Locations are comma-separated but positional meaning varies by country:
// "City, State, USA", "City, ST", "City, Country", "City, Province, Country".
// [ClassifyLocation] turns them into city/state/country with a fixed rule
// order: non-USA country fragments first, then USA signals (the literal USA,
// state codes, full state names), then state extraction. Ambiguous input
// leaves the country nil rather than assuming USA.
//
// All lookup tables (state codes and names, exclusion countries, regions,
// excluded promotions) live in tables.go and are never mutated.
//
// # Regions
//
// Events and promotions are bucketed for browsing: US states into seven
// regions (Northeast, Mid Atlantic, Southeast, South, Midwest, West,
// Pacific Northwest) and other countries into coarse areas (Europe, Asia,
// Latin America, ...). See [RegionFor].
//
// # ID Generation
//
// Event IDs are "cm-<nr>" from the Cagematch record number, so re-scrapes
// upsert in place. Rows without a number get a SHA-256 prefix of
// name|date|location. See [generateID].
package domain
