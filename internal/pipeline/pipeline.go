// Package pipeline drives the scrape-normalize-filter-dedupe-persist flow:
// one orchestrated run per site, batch runs across the whole registry, and
// the filter-only relevance scan.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/logger"
	"github.com/tanversoccho/EchoTrace/internal/registry"
	"github.com/tanversoccho/EchoTrace/internal/relevance"
	"github.com/tanversoccho/EchoTrace/internal/scraper"
	"github.com/tanversoccho/EchoTrace/internal/store"
)

// defaultSiteDelay paces batch runs between sites to stay polite to the
// scraped origins.
const defaultSiteDelay = 5 * time.Second

// FetcherFactory builds the fetcher for a strategy. Injectable for tests.
type FetcherFactory func(strategy registry.Strategy) (scraper.Fetcher, error)

// Orchestrator ties scraping runs to stored results. Sites are processed
// one at a time; session-counter bookkeeping is race-free by construction.
type Orchestrator struct {
	registry   *registry.Registry
	gateway    store.Gateway
	newFetcher FetcherFactory
	siteDelay  time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFetcherFactory replaces how fetchers are built.
func WithFetcherFactory(f FetcherFactory) Option {
	return func(o *Orchestrator) { o.newFetcher = f }
}

// WithSiteDelay sets the pause between sites in a batch run.
func WithSiteDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.siteDelay = d }
}

// New creates an orchestrator over a site registry and persistence gateway.
func New(reg *registry.Registry, gateway store.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:  reg,
		gateway:   gateway,
		siteDelay: defaultSiteDelay,
		newFetcher: func(strategy registry.Strategy) (scraper.Fetcher, error) {
			return scraper.NewFetcher(strategy, scraper.DefaultFetcherConfig())
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enrich derives the classification fields from a filtered raw record.
// Records reaching enrichment have already passed the country filter, so the
// country flag is fixed.
func Enrich(rec domain.RawRecord) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		RawRecord:      rec,
		DocumentType:   relevance.InferDocumentType(rec.Title, rec.Description),
		Country:        "Bangladesh",
		Keywords:       relevance.MatchedKeywords(rec.Title, rec.Description),
		Summary:        relevance.Summary(rec),
		RelevanceScore: relevance.Score(rec.Title, rec.Description),
	}
}

// passesFilters applies the hard ingestion filters: country mention, at
// least one keyword, and a plausible document-type phrase.
func passesFilters(rec domain.RawRecord) bool {
	return relevance.MatchesCriteria(rec.Title, rec.Description) &&
		relevance.HasDocTypePhrase(rec.Title, rec.Description)
}

// ScrapeSite runs the full pipeline for one site: fetch, filter, enrich,
// fingerprint, upsert, duplicate-check, session bookkeeping. The returned
// summary is populated on both success and failure.
func (o *Orchestrator) ScrapeSite(ctx context.Context, siteKey string) (domain.RunSummary, error) {
	summary := domain.RunSummary{SiteKey: siteKey}

	site, err := o.registry.Get(siteKey)
	if err != nil {
		cfgErr := &ConfigError{Site: siteKey, Err: err}
		summary.Error = cfgErr.Error()
		return summary, cfgErr
	}

	logger.Info("starting scrape", "site", site.Key, "strategy", site.Strategy)

	sessionID, err := o.gateway.RecordSession(ctx, siteKey, domain.SessionRunning)
	if err != nil {
		persErr := &PersistenceError{Site: siteKey, Err: err}
		summary.Error = persErr.Error()
		return summary, persErr
	}
	summary.SessionID = sessionID

	counts, err := o.runSite(ctx, site)
	summary.Counts = counts
	if err != nil {
		summary.Error = err.Error()
		o.failSession(ctx, sessionID, err)
		return summary, err
	}

	if err := o.gateway.CompleteSession(ctx, sessionID, counts); err != nil {
		persErr := &PersistenceError{Site: siteKey, Err: err}
		summary.Error = persErr.Error()
		return summary, persErr
	}

	summary.Success = true
	logger.Info("scrape completed", "site", site.Key,
		"found", counts.Found, "new", counts.New,
		"updated", counts.Updated, "duplicate", counts.Duplicate,
		"filtered", counts.Filtered)
	return summary, nil
}

// runSite performs the fetch-through-upsert steps for one site.
func (o *Orchestrator) runSite(ctx context.Context, site registry.SiteConfig) (domain.SessionCounts, error) {
	var counts domain.SessionCounts

	fetcher, err := o.newFetcher(site.Strategy)
	if err != nil {
		return counts, &FetchError{Site: site.Key, Err: err}
	}
	defer fetcher.Close()

	raw, err := fetcher.Fetch(ctx, site)
	if err != nil {
		var loginErr *scraper.LoginError
		return counts, &FetchError{Site: site.Key, Login: errors.As(err, &loginErr), Err: err}
	}
	logger.Debug("fetched raw records", "site", site.Key, "count", len(raw))

	var survivors []domain.RawRecord
	for _, rec := range raw {
		if passesFilters(rec) {
			survivors = append(survivors, rec)
		} else {
			counts.Filtered++
		}
	}
	counts.Found = len(survivors)

	for _, rec := range survivors {
		if err := o.upsert(ctx, site, rec, &counts); err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// upsert ingests one surviving record: enrich, fingerprint, insert-or-update,
// and duplicate-scan on the update path.
func (o *Orchestrator) upsert(ctx context.Context, site registry.SiteConfig, rec domain.RawRecord, counts *domain.SessionCounts) error {
	enriched := Enrich(rec)
	fingerprint := rec.Fingerprint()
	now := time.Now()

	existing, err := o.gateway.Exists(ctx, fingerprint)
	if err != nil {
		return &PersistenceError{Site: site.Key, Err: err}
	}

	if existing == nil {
		id, err := o.gateway.Insert(ctx, enriched, fingerprint, now)
		if err != nil {
			return &PersistenceError{Site: site.Key, Err: err}
		}
		counts.New++
		logger.Debug("inserted opportunity", "site", site.Key, "id", id, "title", rec.Title)
		return nil
	}

	if err := o.gateway.Update(ctx, existing.ID, enriched, now); err != nil {
		return &PersistenceError{Site: site.Key, Err: err}
	}
	counts.Updated++

	// Re-ingested records are checked against same-source neighbors; the
	// first title over the threshold wins. Cross-source mirrors of the same
	// opportunity are not detected.
	match, err := o.gateway.FindSimilar(ctx, existing.ID, rec.Source, rec.Title, relevance.DuplicateThreshold)
	if err != nil {
		return &PersistenceError{Site: site.Key, Err: err}
	}
	if match != nil {
		if err := o.gateway.MarkDuplicate(ctx, existing.ID, match.ID); err != nil {
			return &PersistenceError{Site: site.Key, Err: err}
		}
		counts.Duplicate++
		logger.Debug("marked duplicate", "site", site.Key, "id", existing.ID, "duplicate_of", match.ID)
	}
	return nil
}

// failSession finalizes a session as failed. Bookkeeping failures here are
// logged, not propagated; the original error matters more.
func (o *Orchestrator) failSession(ctx context.Context, sessionID int64, cause error) {
	if err := o.gateway.FailSession(ctx, sessionID, cause.Error()); err != nil {
		logger.Error("failed to finalize session", "session", sessionID, "error", err)
	}
}

// ScrapeAll runs every configured site sequentially with a polite delay in
// between. A failure on one site is recorded in its summary and the batch
// proceeds; the result always has one entry per configured site.
func (o *Orchestrator) ScrapeAll(ctx context.Context) []domain.RunSummary {
	keys := o.registry.Keys()
	summaries := make([]domain.RunSummary, 0, len(keys))

	for i, key := range keys {
		summary, err := o.ScrapeSite(ctx, key)
		if err != nil {
			logger.Error("site scrape failed", "site", key, "error", err)
		}
		summaries = append(summaries, summary)

		if i < len(keys)-1 {
			select {
			case <-ctx.Done():
				return summaries
			case <-time.After(o.siteDelay):
			}
		}
	}
	return summaries
}
