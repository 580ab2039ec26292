// Package domain defines the core records flowing through the ingestion
// pipeline and the persisted opportunity model.
package domain

import "time"

// DocumentType classifies a posting by the procurement document it announces.
type DocumentType string

const (
	DocTypeToR    DocumentType = "ToR"
	DocTypeRFP    DocumentType = "RFP"
	DocTypeEOI    DocumentType = "EOI"
	DocTypeRFQ    DocumentType = "RFQ"
	DocTypeTender DocumentType = "Tender"
	DocTypeOther  DocumentType = "Other"
)

// SessionStatus tracks the lifecycle of one scraping run against one site.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// RawRecord is one scraped container's extracted fields plus provenance.
// It is transient and never persisted as-is.
type RawRecord struct {
	Title        string
	Description  string
	Organization string
	Deadline     string
	Link         string
	PublishDate  string
	Extra        map[string]string // site-specific fields beyond the standard set

	Source    string    // site display name
	SourceKey string    // registry key
	ScrapedAt time.Time // when the container was extracted
}

// EnrichedRecord is a RawRecord with derived classification fields attached.
// It is the input to the persistence gateway.
type EnrichedRecord struct {
	RawRecord

	DocumentType   DocumentType
	Country        string
	Keywords       []string
	Summary        string
	RelevanceScore int
}

// Opportunity is the canonical stored record, keyed by content fingerprint.
type Opportunity struct {
	ID           int64        `db:"id"`
	Fingerprint  string       `db:"fingerprint"`
	Title        string       `db:"title"`
	Description  string       `db:"description"`
	Organization string       `db:"organization"`
	Source       string       `db:"source"`
	SourceKey    string       `db:"source_key"`
	Link         string       `db:"link"`
	PublishDate  string       `db:"publish_date"`
	Deadline     string       `db:"deadline"`
	Country      string       `db:"country"`
	DocumentType DocumentType `db:"document_type"`
	BudgetRange  string       `db:"budget_range"`
	ReferenceNo  string       `db:"reference_no"`
	Keywords     string       `db:"keywords"` // JSON array
	Relevance    int          `db:"relevance_score"`

	IsRead      bool  `db:"is_read"`
	IsFavorite  bool  `db:"is_favorite"`
	IsArchived  bool  `db:"is_archived"`
	IsDuplicate bool  `db:"is_duplicate"`
	DuplicateOf int64 `db:"duplicate_of"` // 0 when unresolved

	FirstSeenAt time.Time `db:"first_seen_at"`
	LastSeenAt  time.Time `db:"last_seen_at"`
	Version     int       `db:"version"`
	RawData     string    `db:"raw_data"` // JSON snapshot for auditability
}

// ScrapingSession is one tracked pipeline run against a single site.
type ScrapingSession struct {
	ID          int64         `db:"id"`
	SiteKey     string        `db:"site_key"`
	Status      SessionStatus `db:"status"`
	Found       int           `db:"items_found"`
	New         int           `db:"items_new"`
	Updated     int           `db:"items_updated"`
	Duplicate   int           `db:"items_duplicate"`
	ErrorMsg    string        `db:"error_message"`
	StartedAt   time.Time     `db:"started_at"`
	CompletedAt *time.Time    `db:"completed_at"`
	Logs        string        `db:"logs"`
}

// SessionCounts accumulates per-run item counters.
type SessionCounts struct {
	Found     int `json:"found"`
	New       int `json:"new"`
	Updated   int `json:"updated"`
	Duplicate int `json:"duplicate"`
	Filtered  int `json:"filtered"`
}

// RunSummary is the per-site outcome returned to callers. A batch run yields
// one RunSummary per configured site, success or failure.
type RunSummary struct {
	SiteKey   string        `json:"site"`
	SessionID int64         `json:"session_id,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Counts    SessionCounts `json:"counts"`
}

// ScanHit is one filter-only match from the ad-hoc relevance scan. It carries
// no persistence side effects.
type ScanHit struct {
	Title        string       `json:"title"`
	Organization string       `json:"organization"`
	Deadline     string       `json:"deadline"`
	Link         string       `json:"link"`
	Source       string       `json:"source"`
	DocumentType DocumentType `json:"document_type"`
	Summary      string       `json:"summary"`
	Keywords     []string     `json:"keywords"`
	Relevance    int          `json:"relevance"`
	FoundAt      time.Time    `json:"found_at"`
}
