package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/logger"
	"github.com/tanversoccho/EchoTrace/internal/registry"
)

// nextPageSelectors are tried in order when looking for a "next page" link.
// Listing markup varies widely across the monitored portals, so several
// common conventions are checked.
var nextPageSelectors = []string{
	`a[rel="next"]`,
	".pagination-next",
	".next-page",
	"a.next",
	`[aria-label="Next"]`,
}

// StaticFetcher fetches plain HTML pages with Colly and extracts records
// from the parsed document. Pagination follows discovered "next" links
// sequentially with a polite delay between requests.
type StaticFetcher struct {
	config FetcherConfig
}

// NewStaticFetcher creates a new static fetcher.
func NewStaticFetcher(cfg FetcherConfig) *StaticFetcher {
	return &StaticFetcher{config: cfg.withDefaults()}
}

// Fetch retrieves all listing pages for a site and extracts their records.
func (f *StaticFetcher) Fetch(ctx context.Context, site registry.SiteConfig) ([]domain.RawRecord, error) {
	pageURL := site.TargetURL()
	maxPages := f.config.maxPages(site)

	var records []domain.RawRecord
	for page := 1; ; page++ {
		logger.Debug("static fetch requesting page", "site", site.Key, "page", page, "url", pageURL)

		html, err := f.get(pageURL)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			// A broken pagination link ends the walk; earlier pages stand.
			logger.Warn("static fetch stopping pagination", "site", site.Key, "page", page, "error", err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse page: %w", err)
		}

		pageRecords := extractAll(doc, site, pageURL, time.Now())
		logger.Debug("static fetch extracted", "site", site.Key, "page", page, "records", len(pageRecords))
		records = append(records, pageRecords...)

		if page >= maxPages {
			break
		}
		next, ok := findNextPage(doc, pageURL)
		if !ok {
			break
		}

		select {
		case <-ctx.Done():
			return records, ctx.Err()
		case <-time.After(f.config.Delay):
		}
		pageURL = next
	}

	return records, nil
}

// get performs a single HTTP GET and returns the response body.
func (f *StaticFetcher) get(targetURL string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
	)
	c.SetRequestTimeout(f.config.Timeout)

	var html string
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})

	if err := c.Visit(targetURL); err != nil {
		return "", fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return "", fetchErr
	}
	return html, nil
}

// findNextPage looks for a next-page link among the candidate selectors and
// returns its absolute URL.
func findNextPage(doc *goquery.Document, pageURL string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}

	for _, sel := range nextPageSelectors {
		match := doc.Find(sel).First()
		if match.Length() == 0 {
			continue
		}
		href, exists := match.Attr("href")
		if !exists {
			continue
		}
		if next := resolveLink(base, href); next != "" && next != pageURL {
			return next, true
		}
	}
	return "", false
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}
