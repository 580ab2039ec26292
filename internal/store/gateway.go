// Package store implements the persistence gateway backing the ingestion
// pipeline. The pipeline only sees the narrow Gateway interface; the SQLite
// implementation behind it is an interchangeable collaborator.
package store

import (
	"context"
	"time"

	"github.com/tanversoccho/EchoTrace/internal/domain"
)

// Existing describes an already-persisted opportunity matched by fingerprint.
type Existing struct {
	ID         int64     `db:"id"`
	Version    int       `db:"version"`
	LastSeenAt time.Time `db:"last_seen_at"`
}

// SimilarMatch is a same-source neighbor whose title crossed the duplicate
// threshold.
type SimilarMatch struct {
	ID         int64
	Title      string
	Similarity float64
}

// Gateway is the persistence contract consumed by the orchestrator. The
// orchestrator never issues concurrent writes for the same fingerprint, so
// implementations may assume a single logical writer per upsert path.
type Gateway interface {
	// Exists looks up an opportunity by fingerprint. Returns nil when absent.
	Exists(ctx context.Context, fingerprint string) (*Existing, error)

	// Insert persists a new opportunity (version 1, first seen = last seen =
	// now) and records its keyword mentions. Returns the new row id.
	Insert(ctx context.Context, rec domain.EnrichedRecord, fingerprint string, now time.Time) (int64, error)

	// Update advances last-seen, bumps the version by exactly one, and
	// re-observes the record's keywords.
	Update(ctx context.Context, id int64, rec domain.EnrichedRecord, now time.Time) error

	// RecordSession opens a session row for one site run.
	RecordSession(ctx context.Context, siteKey string, status domain.SessionStatus) (int64, error)

	// CompleteSession finalizes a session as completed with its counts.
	CompleteSession(ctx context.Context, sessionID int64, counts domain.SessionCounts) error

	// FailSession finalizes a session as failed, capturing the error.
	FailSession(ctx context.Context, sessionID int64, errMsg string) error

	// FindSimilar scans same-source neighbors of the given opportunity and
	// returns the first one whose title similarity reaches the threshold,
	// or nil when none does. Cross-source duplicates are not detected.
	FindSimilar(ctx context.Context, id int64, source, title string, threshold float64) (*SimilarMatch, error)

	// MarkDuplicate flags an opportunity as a duplicate of another.
	MarkDuplicate(ctx context.Context, id, duplicateOf int64) error

	// ArchiveOlderThan soft-deletes opportunities whose deadline passed more
	// than the given number of days ago. Returns the number archived.
	ArchiveOlderThan(ctx context.Context, days int) (int64, error)
}
