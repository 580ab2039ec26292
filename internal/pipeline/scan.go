package pipeline

import (
	"context"
	"time"

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/logger"
	"github.com/tanversoccho/EchoTrace/internal/relevance"
)

// SeenLinks is a run-scoped dedup cache for the relevance scan. Passing it
// in explicitly keeps scans independently testable and restartable; callers
// wanting cross-run memory can reuse one cache.
type SeenLinks map[string]bool

// NewSeenLinks creates an empty dedup cache.
func NewSeenLinks() SeenLinks {
	return make(SeenLinks)
}

// ScanRelevant sweeps every configured site and returns the postings that
// match the relevance criteria, without any persistence side effects. Hits
// are ranked with the weighted scoring formula. A site failure is logged
// and the scan proceeds to the next site.
func (o *Orchestrator) ScanRelevant(ctx context.Context, seen SeenLinks) ([]domain.ScanHit, error) {
	if seen == nil {
		seen = NewSeenLinks()
	}

	var hits []domain.ScanHit
	for _, site := range o.registry.All() {
		logger.Info("scanning site", "site", site.Key)

		fetcher, err := o.newFetcher(site.Strategy)
		if err != nil {
			logger.Error("scan skipping site", "site", site.Key, "error", err)
			continue
		}

		raw, err := fetcher.Fetch(ctx, site)
		fetcher.Close()
		if err != nil {
			logger.Error("scan failed for site", "site", site.Key, "error", err)
			continue
		}

		for _, rec := range raw {
			if !relevance.MatchesCriteria(rec.Title, rec.Description) {
				continue
			}
			if rec.Link != "" && seen[rec.Link] {
				continue
			}
			if rec.Link != "" {
				seen[rec.Link] = true
			}

			docType := relevance.InferDocumentType(rec.Title, rec.Description)
			hits = append(hits, domain.ScanHit{
				Title:        rec.Title,
				Organization: rec.Organization,
				Deadline:     rec.Deadline,
				Link:         rec.Link,
				Source:       rec.Source,
				DocumentType: docType,
				Summary:      relevance.Summary(rec),
				Keywords:     relevance.MatchedKeywords(rec.Title, rec.Description),
				Relevance:    relevance.ScoreWeighted(rec.Title, rec.Description, docType),
				FoundAt:      time.Now(),
			})
		}
	}

	return hits, nil
}
