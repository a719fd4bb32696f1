package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// listingDateLayout is the DD.MM.YYYY format of the listing date column.
const listingDateLayout = "02.01.2006"

// Cagematch page ids carried in the "id" query parameter.
const (
	pageIDEvent     = "1"
	pageIDPromotion = "8"
)

var (
	// ErrInvalidDate is returned when the date cell is not DD.MM.YYYY.
	ErrInvalidDate = errors.New("invalid listing date")
	// ErrNoEventLink is returned when the event cell has no event link.
	ErrNoEventLink = errors.New("no event link in row")

	// cagematchIDRe pulls the numeric record id out of a Cagematch URL,
	// e.g. "?id=1&nr=412345" -> "412345".
	cagematchIDRe = regexp.MustCompile(`nr=(\d+)`)
)

// ParseRow turns a listing row into an Event. The location is classified
// but the event is not yet enriched.
func ParseRow(row RawRow) (Event, error) {
	date, err := parseListingDate(row.DateText)
	if err != nil {
		return Event{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(row.EventCellHTML))
	if err != nil {
		return Event{}, fmt.Errorf("parse event cell: %w", err)
	}

	var (
		name, href string
		promo      PromotionRef
	)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		h, _ := a.Attr("href")
		switch linkPageID(h) {
		case pageIDEvent:
			if href == "" {
				href = h
				name = strings.TrimSpace(a.Text())
			}
		case pageIDPromotion:
			if promo.Name == "" {
				promo = PromotionRef{
					Name:        promotionLinkName(a),
					CagematchID: ExtractCagematchID(h),
				}
			}
		}
	})
	if href == "" || name == "" {
		return Event{}, ErrNoEventLink
	}

	rawLocation := strings.TrimSpace(row.LocationText)
	sourceURL := resolveURL(row.PageURL, href)
	cmID := ExtractCagematchID(href)

	return Event{
		ID:          generateID(cmID, name, date, rawLocation),
		CagematchID: cmID,
		Name:        name,
		Date:        date,
		Promotion:   promo,
		RawLocation: rawLocation,
		Location:    ClassifyLocation(rawLocation),
		SourceURL:   sourceURL,
	}, nil
}

// ExtractCagematchID returns the digits of the nr= parameter, or "".
func ExtractCagematchID(rawURL string) string {
	m := cagematchIDRe.FindStringSubmatch(rawURL)
	if len(m) != 2 {
		return ""
	}
	return m[1]
}

// EnrichEvent attaches the region bucket and processing timestamp.
func EnrichEvent(event Event) Event {
	event.Region = RegionFor(event.Location)
	event.ProcessedAt = clock.Now()
	return event
}

func parseListingDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(listingDateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// linkPageID returns the "id" query parameter of a link when it also
// carries a record number.
func linkPageID(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	q := u.Query()
	if q.Get("nr") == "" {
		return ""
	}
	return q.Get("id")
}

// promotionLinkName reads the promotion name from the logo's alt or title,
// falling back to the link text.
func promotionLinkName(a *goquery.Selection) string {
	img := a.Find("img").First()
	for _, attr := range []string{"alt", "title"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if v, ok := a.Attr("title"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(a.Text())
}

func resolveURL(base, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}

// generateID produces a deterministic event ID so re-scraping the same row
// upserts rather than duplicates. Cagematch ids are used directly; rows
// without one fall back to a short hash of name, date and location.
func generateID(cagematchID, name string, date time.Time, rawLocation string) string {
	if cagematchID != "" {
		return "cm-" + cagematchID
	}
	input := fmt.Sprintf("%s|%s|%s", strings.ToLower(name), date.Format(time.DateOnly), strings.ToLower(rawLocation))
	hash := sha256.Sum256([]byte(input))
	return "ev-" + hex.EncodeToString(hash[:8])
}
