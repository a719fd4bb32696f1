package domain

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ticketHosts are substrings identifying ticket sales links on event pages.
var ticketHosts = []string{
	"ticket", "eventbrite", "showclix", "ticketmaster", "dice.fm", "tixr",
	"seetickets", "universe", "holdmyticket", "eventeny", "freshtix", "simpletix",
}

// ParseEventDetails reads venue, time, and ticket fields from a Cagematch
// event page. Missing fields are left empty.
func ParseEventDetails(r io.Reader) (EventDetails, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return EventDetails{}, fmt.Errorf("parse event page: %w", err)
	}

	var d EventDetails
	doc.Find(".InformationBoxRow").Each(func(_ int, row *goquery.Selection) {
		title := strings.ToLower(strings.TrimSpace(row.Find(".InformationBoxTitle").Text()))
		contents := row.Find(".InformationBoxContents")
		value := strings.TrimSpace(contents.Text())
		if value == "" {
			return
		}

		switch {
		case strings.Contains(title, "arena"):
			if link := strings.TrimSpace(contents.Find("a").First().Text()); link != "" {
				value = link
			}
			setOnce(&d.VenueName, value)
		case strings.Contains(title, "location"), strings.Contains(title, "address"):
			setOnce(&d.VenueAddress, value)
		case strings.Contains(title, "bell"), strings.Contains(title, "start"):
			setOnce(&d.EventTime, value)
		case strings.Contains(title, "door"):
			setOnce(&d.DoorsTime, value)
		}
	})

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if isTicketLink(href) {
			d.TicketURL = href
			return false
		}
		return true
	})

	return d, nil
}

func isTicketLink(href string) bool {
	h := strings.ToLower(href)
	if !strings.HasPrefix(h, "http") || strings.Contains(h, "cagematch.net") {
		return false
	}
	for _, host := range ticketHosts {
		if strings.Contains(h, host) {
			return true
		}
	}
	return false
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
