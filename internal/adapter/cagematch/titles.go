package cagematch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hottag/hottag-etl/internal/domain"
)

// Cagematch page kinds, as the "id" query parameter.
const (
	pagePromotion = "8"
	pageTitle     = "5"
	pageWrestler  = "2"
)

// PromotionSearchURL returns the promotion search page for name.
func (c *Client) PromotionSearchURL(name string) string {
	return fmt.Sprintf("%s/?id=8&view=promotions&search=%s", c.baseURL, url.QueryEscape(name))
}

// TitlesURL returns the current-reigns tab of a promotion.
func (c *Client) TitlesURL(promotionNr string) string {
	return fmt.Sprintf("%s/?id=8&nr=%s&page=5&reign=current", c.baseURL, url.QueryEscape(promotionNr))
}

// FindPromotion searches Cagematch for a promotion and returns its "nr", or
// "" when no result matches name.
func (c *Client) FindPromotion(ctx context.Context, name string) (string, error) {
	body, err := c.get(ctx, c.PromotionSearchURL(name))
	if err != nil {
		return "", err
	}
	defer body.Close()

	return ParsePromotionSearch(body, name)
}

// FetchTitles fetches a promotion's current champions.
func (c *Client) FetchTitles(ctx context.Context, promotionNr string) ([]domain.Title, error) {
	body, err := c.get(ctx, c.TitlesURL(promotionNr))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	titles, err := ParseTitles(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("titles fetched", "promotion_nr", promotionNr, "titles", len(titles))
	return titles, nil
}

// ParsePromotionSearch returns the nr of the promotion link whose text equals
// name, ignoring case, or else of the first one containing it. Tab links
// (with a "page" parameter) are ignored. It returns "" when nothing matches.
func ParsePromotionSearch(r io.Reader, name string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse promotion search: %w", err)
	}

	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return "", nil
	}
	var exact, partial string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		q, ok := linkQuery(a)
		if !ok || q.Get("id") != pagePromotion || q.Get("nr") == "" || q.Has("page") {
			return true
		}
		switch text := strings.ToLower(strings.TrimSpace(a.Text())); {
		case text == want:
			exact = q.Get("nr")
			return false
		case partial == "" && strings.Contains(text, want):
			partial = q.Get("nr")
		}
		return true
	})
	if exact != "" {
		return exact, nil
	}
	return partial, nil
}

// ParseTitles extracts current titles from the reigns tables. The first row
// of each table is its header. Vacant reigns and navigation rows (starting
// with "«") are dropped, as are titles left with no champion.
func ParseTitles(r io.Reader) ([]domain.Title, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse titles: %w", err)
	}

	var titles []domain.Title
	doc.Find("div.TableContents").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if i == 0 || cells.Length() < 2 {
				return
			}

			name := titleName(cells.First())
			if name == "" || strings.HasPrefix(name, "«") {
				return
			}

			var champions []string
			cells.Slice(1, goquery.ToEnd).Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				q, ok := linkQuery(a)
				if !ok || q.Get("id") != pageWrestler || q.Get("nr") == "" {
					return
				}
				if n := strings.TrimSpace(a.Text()); n != "" && !domain.IsVacant(n) {
					champions = append(champions, n)
				}
			})
			if len(champions) > 0 {
				titles = append(titles, domain.Title{Name: name, Champions: champions})
			}
		})
	})
	return titles, nil
}

// titleName prefers the text of the title link, falling back to the cell.
func titleName(cell *goquery.Selection) string {
	var name string
	cell.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if q, ok := linkQuery(a); ok && q.Get("id") == pageTitle {
			name = strings.TrimSpace(a.Text())
			return false
		}
		return true
	})
	if name == "" {
		name = strings.TrimSpace(cell.Text())
	}
	return name
}

func linkQuery(a *goquery.Selection) (url.Values, bool) {
	href, _ := a.Attr("href")
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	return u.Query(), true
}
