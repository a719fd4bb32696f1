// Package cagematch fetches the upcoming-event listing and event pages
// from cagematch.net.
//
// Requests go through a token-bucket limiter with a burst of one, so
// consecutive requests are spaced by at least the configured delay.
package cagematch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/hottag/hottag-etl/internal/domain"
)

// Client is a rate-limited Cagematch HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Client that waits at least delay between requests.
func NewClient(baseURL, userAgent string, delay, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
		logger:     logger,
	}
}

// ListingURL returns the card-view listing page starting at offset.
func (c *Client) ListingURL(offset int) string {
	return fmt.Sprintf("%s/?id=1&view=cards&s=%d", c.baseURL, offset)
}

// FetchPage fetches one listing page and returns its data rows.
func (c *Client) FetchPage(ctx context.Context, offset int) ([]domain.RawRow, error) {
	pageURL := c.ListingURL(offset)
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	rows, err := ParseListing(body, pageURL)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("listing page fetched", "offset", offset, "rows", len(rows))
	return rows, nil
}

// FetchDetails fetches an event's overview page and parses venue details.
func (c *Client) FetchDetails(ctx context.Context, eventURL string) (domain.EventDetails, error) {
	body, err := c.get(ctx, DetailsURL(eventURL))
	if err != nil {
		return domain.EventDetails{}, err
	}
	defer body.Close()

	return domain.ParseEventDetails(body)
}

// ParseListing extracts the rows of the listing table. Rows with fewer than
// four cells, including the header, are skipped.
func ParseListing(r io.Reader, pageURL string) ([]domain.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var rows []domain.RawRow
	doc.Find("div.TableContents tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 4 {
			return
		}
		eventHTML, err := cells.Eq(2).Html()
		if err != nil {
			return
		}
		rows = append(rows, domain.RawRow{
			DateText:      strings.TrimSpace(cells.Eq(1).Text()),
			EventCellHTML: eventHTML,
			LocationText:  strings.TrimSpace(cells.Eq(3).Text()),
			PageURL:       pageURL,
		})
	})
	return rows, nil
}

// DetailsURL drops a "&page=" suffix so the overview tab is requested.
func DetailsURL(eventURL string) string {
	if i := strings.Index(eventURL, "&page="); i >= 0 {
		return eventURL[:i]
	}
	return eventURL
}

// get performs a rate-limited GET and returns the body decoded to UTF-8.
// The caller closes the returned reader.
func (c *Client) get(ctx context.Context, u string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck // status error takes precedence
		return nil, fmt.Errorf("get %s: unexpected status %d", u, resp.StatusCode)
	}

	decoded, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close() //nolint:errcheck // decode error takes precedence
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}
	return readCloser{Reader: decoded, Closer: resp.Body}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
