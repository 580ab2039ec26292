package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/relevance"
)

// Store is the SQLite-backed persistence gateway.
type Store struct {
	db *sqlx.DB
}

// Open opens (and migrates) the database at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer; a second pooled connection would also
	// break :memory: databases, which exist per connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Exists looks up an opportunity by fingerprint.
func (s *Store) Exists(ctx context.Context, fingerprint string) (*Existing, error) {
	var existing Existing
	err := s.db.GetContext(ctx, &existing,
		`SELECT id, version, last_seen_at FROM opportunities WHERE fingerprint = ?`,
		fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check existence: %w", err)
	}
	return &existing, nil
}

// Insert persists a new opportunity and its keyword mentions.
func (s *Store) Insert(ctx context.Context, rec domain.EnrichedRecord, fingerprint string, now time.Time) (int64, error) {
	keywords, err := json.Marshal(rec.Keywords)
	if err != nil {
		return 0, fmt.Errorf("failed to encode keywords: %w", err)
	}
	rawData, err := json.Marshal(map[string]any{
		"title":        rec.Title,
		"description":  rec.Description,
		"organization": rec.Organization,
		"scraped_at":   rec.ScrapedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode raw data: %w", err)
	}

	country := rec.Country
	if country == "" {
		country = "Bangladesh"
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO opportunities (
			fingerprint, title, description, organization, source, source_key,
			link, publish_date, deadline, country, document_type, budget_range,
			reference_no, keywords, relevance_score, raw_data,
			first_seen_at, last_seen_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		fingerprint, rec.Title, rec.Description, rec.Organization, rec.Source,
		rec.SourceKey, rec.Link, rec.PublishDate, rec.Deadline, country,
		string(rec.DocumentType), rec.Extra["budget_range"], rec.Extra["reference_no"],
		string(keywords), rec.RelevanceScore, string(rawData), now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert opportunity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}

	if err := s.trackKeywords(ctx, id, rec.Keywords); err != nil {
		return 0, err
	}
	return id, nil
}

// Update advances last-seen and the version counter, and re-observes the
// record's keywords. first_seen_at is never touched.
func (s *Store) Update(ctx context.Context, id int64, rec domain.EnrichedRecord, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE opportunities SET last_seen_at = ?, version = version + 1 WHERE id = ?`,
		now, id)
	if err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}
	return s.trackKeywords(ctx, id, rec.Keywords)
}

// trackKeywords increments the mention counter for each keyword. Counters
// are only ever incremented, never replaced.
func (s *Store) trackKeywords(ctx context.Context, id int64, keywords []string) error {
	for _, kw := range keywords {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO keyword_mentions (keyword, opportunity_id, count) VALUES (?, ?, 1)
			 ON CONFLICT(keyword, opportunity_id) DO UPDATE SET count = count + 1`,
			kw, id)
		if err != nil {
			return fmt.Errorf("failed to track keyword %q: %w", kw, err)
		}
	}
	return nil
}

// RecordSession opens a session row for one site run.
func (s *Store) RecordSession(ctx context.Context, siteKey string, status domain.SessionStatus) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scraping_sessions (site_key, status, started_at) VALUES (?, ?, ?)`,
		siteKey, string(status), time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to record session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}
	return id, nil
}

// CompleteSession finalizes a session as completed with its counts.
func (s *Store) CompleteSession(ctx context.Context, sessionID int64, counts domain.SessionCounts) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scraping_sessions SET
			status = 'completed', completed_at = ?,
			items_found = ?, items_new = ?, items_updated = ?, items_duplicate = ?
		WHERE id = ?`,
		time.Now(), counts.Found, counts.New, counts.Updated, counts.Duplicate, sessionID)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	return nil
}

// FailSession finalizes a session as failed, capturing the error message.
func (s *Store) FailSession(ctx context.Context, sessionID int64, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scraping_sessions SET status = 'failed', completed_at = ?, error_message = ? WHERE id = ?`,
		time.Now(), errMsg, sessionID)
	if err != nil {
		return fmt.Errorf("failed to fail session: %w", err)
	}
	return nil
}

// Session fetches a session row.
func (s *Store) Session(ctx context.Context, id int64) (domain.ScrapingSession, error) {
	var session domain.ScrapingSession
	err := s.db.GetContext(ctx, &session,
		`SELECT * FROM scraping_sessions WHERE id = ?`, id)
	if err != nil {
		return domain.ScrapingSession{}, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// FindSimilar scans same-source neighbors in id order and returns the first
// whose title similarity reaches the threshold.
func (s *Store) FindSimilar(ctx context.Context, id int64, source, title string, threshold float64) (*SimilarMatch, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT id, title FROM opportunities WHERE id != ? AND source = ? ORDER BY id`,
		id, source)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for duplicates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var neighborID int64
		var neighborTitle string
		if err := rows.Scan(&neighborID, &neighborTitle); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		if sim := relevance.Similarity(title, neighborTitle); sim >= threshold {
			return &SimilarMatch{ID: neighborID, Title: neighborTitle, Similarity: sim}, nil
		}
	}
	return nil, rows.Err()
}

// MarkDuplicate flags an opportunity as a duplicate of another.
func (s *Store) MarkDuplicate(ctx context.Context, id, duplicateOf int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE opportunities SET is_duplicate = TRUE, duplicate_of = ? WHERE id = ?`,
		duplicateOf, id)
	if err != nil {
		return fmt.Errorf("failed to mark duplicate: %w", err)
	}
	return nil
}

// ArchiveOlderThan soft-deletes opportunities whose deadline passed more
// than the given number of days ago. Unparseable deadlines are left alone.
func (s *Store) ArchiveOlderThan(ctx context.Context, days int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE opportunities SET is_archived = TRUE
		 WHERE deadline != '' AND date(deadline) < date('now', ?)
		 AND is_archived = FALSE`,
		fmt.Sprintf("-%d days", days))
	if err != nil {
		return 0, fmt.Errorf("failed to archive: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read archive count: %w", err)
	}
	return count, nil
}

// SetStatus applies user status actions (read, favorite, archive) to an
// opportunity.
func (s *Store) SetStatus(ctx context.Context, id int64, field string, value bool) error {
	switch field {
	case "is_read", "is_favorite", "is_archived":
	default:
		return fmt.Errorf("unknown status field %q", field)
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE opportunities SET %s = ? WHERE id = ?`, field), value, id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// ListFilters narrows ListOpportunities results.
type ListFilters struct {
	Source          string
	DocumentType    string
	Country         string
	Keyword         string // substring match against the keyword list
	MinRelevance    int
	IncludeArchived bool
	Limit           int
}

// ListOpportunities returns stored opportunities matching the filters,
// newest first.
func (s *Store) ListOpportunities(ctx context.Context, filters ListFilters) ([]domain.Opportunity, error) {
	query := `SELECT * FROM opportunities WHERE 1=1`
	var args []any

	if !filters.IncludeArchived {
		query += ` AND is_archived = FALSE`
	}
	if filters.Source != "" {
		query += ` AND source = ?`
		args = append(args, filters.Source)
	}
	if filters.DocumentType != "" {
		query += ` AND document_type = ?`
		args = append(args, filters.DocumentType)
	}
	if filters.Country != "" {
		query += ` AND country = ?`
		args = append(args, filters.Country)
	}
	if filters.Keyword != "" {
		query += ` AND keywords LIKE ?`
		args = append(args, "%"+filters.Keyword+"%")
	}
	if filters.MinRelevance > 0 {
		query += ` AND relevance_score >= ?`
		args = append(args, filters.MinRelevance)
	}

	query += ` ORDER BY last_seen_at DESC, id DESC`

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	var opportunities []domain.Opportunity
	if err := s.db.SelectContext(ctx, &opportunities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	return opportunities, nil
}

// GetByFingerprint loads a full opportunity row by its content hash.
func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (domain.Opportunity, error) {
	var opp domain.Opportunity
	err := s.db.GetContext(ctx, &opp,
		`SELECT * FROM opportunities WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("failed to load opportunity: %w", err)
	}
	return opp, nil
}
