// Package scraper implements the two page-fetch strategies and the selector
// driven field extraction shared between them.
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/registry"
)

// Fetcher abstracts a fetch strategy. Both strategies yield the same record
// shape, tagged with source name and scrape timestamp.
type Fetcher interface {
	// Fetch retrieves and extracts all records for a site, following
	// pagination up to the configured bound.
	Fetch(ctx context.Context, site registry.SiteConfig) ([]domain.RawRecord, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns "static" or "dynamic".
	Type() string
}

// FetcherConfig holds common fetcher configuration.
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration // per page navigation/request
	WaitFor   time.Duration // container-appearance bound (dynamic)
	Settle    time.Duration // fixed wait after a pagination click (dynamic)
	Delay     time.Duration // polite wait between page requests (static)
	MaxPages  int           // pagination cap when the site config has none
}

// DefaultFetcherConfig returns sensible defaults. The user agent is the
// descriptive one the monitored portals already know this bot by.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36 EchoTrace-Bot/1.0",
		Timeout:   30 * time.Second,
		WaitFor:   30 * time.Second,
		Settle:    2 * time.Second,
		Delay:     2 * time.Second,
		MaxPages:  3,
	}
}

func (c FetcherConfig) withDefaults() FetcherConfig {
	def := DefaultFetcherConfig()
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.WaitFor == 0 {
		c.WaitFor = def.WaitFor
	}
	if c.Settle == 0 {
		c.Settle = def.Settle
	}
	if c.Delay == 0 {
		c.Delay = def.Delay
	}
	if c.MaxPages == 0 {
		c.MaxPages = def.MaxPages
	}
	return c
}

// maxPages resolves the pagination bound for a site.
func (c FetcherConfig) maxPages(site registry.SiteConfig) int {
	if site.MaxPages > 0 {
		return site.MaxPages
	}
	return c.MaxPages
}

// NewFetcher creates the fetcher for a site's strategy.
func NewFetcher(strategy registry.Strategy, cfg FetcherConfig) (Fetcher, error) {
	switch strategy {
	case registry.StrategyStatic:
		return NewStaticFetcher(cfg), nil
	case registry.StrategyDynamic:
		return NewDynamicFetcher(cfg)
	default:
		return nil, fmt.Errorf("unknown fetch strategy: %s", strategy)
	}
}
