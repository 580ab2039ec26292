package store

import (
	"context"
	"testing"
	"time"

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/relevance"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(title, link string) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		RawRecord: domain.RawRecord{
			Title:        title,
			Description:  "Consultancy assignment covering several districts.",
			Organization: "BRAC",
			Deadline:     "2025-09-30",
			Link:         link,
			PublishDate:  "2025-08-15",
			Source:       "Test Portal",
			SourceKey:    "test",
			ScrapedAt:    time.Now(),
		},
		DocumentType:   domain.DocTypeToR,
		Country:        "Bangladesh",
		Keywords:       []string{"baseline", "consultancy"},
		Summary:        "summary",
		RelevanceScore: 60,
	}
}

func TestInsertAndExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("ToR: Baseline Study Bangladesh", "https://test.example.org/1")
	fp := rec.Fingerprint()

	existing, err := s.Exists(ctx, fp)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if existing != nil {
		t.Fatalf("expected nil for unseen fingerprint, got %+v", existing)
	}

	now := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	id, err := s.Insert(ctx, rec, fp, now)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	existing, err = s.Exists(ctx, fp)
	if err != nil {
		t.Fatalf("Exists() after insert error = %v", err)
	}
	if existing == nil {
		t.Fatal("expected existing row after insert")
	}
	if existing.ID != id || existing.Version != 1 {
		t.Errorf("existing = %+v, want id=%d version=1", existing, id)
	}

	opp, err := s.GetByFingerprint(ctx, fp)
	if err != nil {
		t.Fatalf("GetByFingerprint() error = %v", err)
	}
	if opp.Title != rec.Title || opp.Source != "Test Portal" {
		t.Errorf("stored row mismatch: %+v", opp)
	}
	if opp.DocumentType != domain.DocTypeToR {
		t.Errorf("document type = %q", opp.DocumentType)
	}
	if opp.Keywords != `["baseline","consultancy"]` {
		t.Errorf("keywords JSON = %q", opp.Keywords)
	}
	if opp.Country != "Bangladesh" {
		t.Errorf("country = %q", opp.Country)
	}
	if opp.Version != 1 {
		t.Errorf("version = %d, want 1", opp.Version)
	}
	if !opp.FirstSeenAt.Equal(opp.LastSeenAt) {
		t.Errorf("fresh insert should have first_seen == last_seen: %v vs %v",
			opp.FirstSeenAt, opp.LastSeenAt)
	}
}

func TestUpdate_AdvancesVersionNotFirstSeen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("RFP: Endline Evaluation Bangladesh", "https://test.example.org/2")
	fp := rec.Fingerprint()

	t1 := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 8, 21, 10, 0, 0, 0, time.UTC)

	id, err := s.Insert(ctx, rec, fp, t1)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := s.Update(ctx, id, rec, t2); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	opp, err := s.GetByFingerprint(ctx, fp)
	if err != nil {
		t.Fatalf("GetByFingerprint() error = %v", err)
	}
	if opp.Version != 2 {
		t.Errorf("version = %d, want 2", opp.Version)
	}
	if !opp.FirstSeenAt.Equal(t1) {
		t.Errorf("first_seen_at moved: %v, want %v", opp.FirstSeenAt, t1)
	}
	if !opp.LastSeenAt.Equal(t2) {
		t.Errorf("last_seen_at = %v, want %v", opp.LastSeenAt, t2)
	}
}

func TestKeywordMentions_CountIncrements(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("ToR: Survey Bangladesh", "https://test.example.org/3")
	id, err := s.Insert(ctx, rec, rec.Fingerprint(), time.Now())
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := s.Update(ctx, id, rec, time.Now()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	var count int
	err = s.db.GetContext(ctx, &count,
		`SELECT count FROM keyword_mentions WHERE keyword = ? AND opportunity_id = ?`,
		"baseline", id)
	if err != nil {
		t.Fatalf("failed to read mention count: %v", err)
	}
	if count != 2 {
		t.Errorf("mention count = %d, want 2 (insert + update)", count)
	}
}

func TestFindSimilarAndMarkDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	original := testRecord(
		"Terms of Reference: Baseline Study for Rural Health Programme",
		"https://test.example.org/a")
	repost := testRecord(
		"Terms of Reference - Baseline Study for Rural Health Programme!",
		"https://test.example.org/b")

	origID, err := s.Insert(ctx, original, original.Fingerprint(), time.Now())
	if err != nil {
		t.Fatalf("Insert(original) error = %v", err)
	}
	repostID, err := s.Insert(ctx, repost, repost.Fingerprint(), time.Now())
	if err != nil {
		t.Fatalf("Insert(repost) error = %v", err)
	}

	match, err := s.FindSimilar(ctx, repostID, repost.Source, repost.Title, relevance.DuplicateThreshold)
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	if match == nil {
		t.Fatal("expected a similar neighbor")
	}
	if match.ID != origID {
		t.Errorf("match id = %d, want %d", match.ID, origID)
	}
	if match.Similarity < relevance.DuplicateThreshold {
		t.Errorf("similarity %f below threshold", match.Similarity)
	}

	// Similarity only looks within the same source.
	crossSource, err := s.FindSimilar(ctx, repostID, "Other Portal", repost.Title, relevance.DuplicateThreshold)
	if err != nil {
		t.Fatalf("FindSimilar(cross-source) error = %v", err)
	}
	if crossSource != nil {
		t.Errorf("cross-source match should not be found: %+v", crossSource)
	}

	if err := s.MarkDuplicate(ctx, repostID, origID); err != nil {
		t.Fatalf("MarkDuplicate() error = %v", err)
	}
	opp, err := s.GetByFingerprint(ctx, repost.Fingerprint())
	if err != nil {
		t.Fatalf("GetByFingerprint() error = %v", err)
	}
	if !opp.IsDuplicate || opp.DuplicateOf != origID {
		t.Errorf("duplicate flags not set: is_duplicate=%v duplicate_of=%d", opp.IsDuplicate, opp.DuplicateOf)
	}
}

func TestFindSimilar_NoMatchBelowThreshold(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := testRecord("ToR: Baseline Study Rural Health", "https://test.example.org/x")
	second := testRecord("RFQ: Vehicle Rental Services Procurement", "https://test.example.org/y")

	if _, err := s.Insert(ctx, first, first.Fingerprint(), time.Now()); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	id, err := s.Insert(ctx, second, second.Fingerprint(), time.Now())
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	match, err := s.FindSimilar(ctx, id, second.Source, second.Title, relevance.DuplicateThreshold)
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	if match != nil {
		t.Errorf("unrelated titles flagged similar: %+v", match)
	}
}

func TestArchiveOlderThan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stale := testRecord("ToR: Old Assignment Bangladesh", "https://test.example.org/old")
	stale.Deadline = "2020-01-01"
	fresh := testRecord("ToR: Future Assignment Bangladesh", "https://test.example.org/new")
	fresh.Deadline = "2999-01-01"
	undated := testRecord("ToR: Undated Assignment Bangladesh", "https://test.example.org/undated")
	undated.Deadline = ""

	for _, rec := range []domain.EnrichedRecord{stale, fresh, undated} {
		if _, err := s.Insert(ctx, rec, rec.Fingerprint(), time.Now()); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	archived, err := s.ArchiveOlderThan(ctx, 90)
	if err != nil {
		t.Fatalf("ArchiveOlderThan() error = %v", err)
	}
	if archived != 1 {
		t.Errorf("archived = %d, want 1", archived)
	}

	opp, err := s.GetByFingerprint(ctx, stale.Fingerprint())
	if err != nil {
		t.Fatalf("GetByFingerprint() error = %v", err)
	}
	if !opp.IsArchived {
		t.Error("stale opportunity not archived")
	}

	// Already-archived rows are not re-counted on a second sweep.
	archived, err = s.ArchiveOlderThan(ctx, 90)
	if err != nil {
		t.Fatalf("second ArchiveOlderThan() error = %v", err)
	}
	if archived != 0 {
		t.Errorf("second sweep archived = %d, want 0", archived)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RecordSession(ctx, "bdjobs", domain.SessionRunning)
	if err != nil {
		t.Fatalf("RecordSession() error = %v", err)
	}

	session, err := s.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if session.Status != domain.SessionRunning {
		t.Errorf("status = %q, want running", session.Status)
	}
	if session.CompletedAt != nil {
		t.Errorf("fresh session should have no completion time")
	}

	counts := domain.SessionCounts{Found: 5, New: 3, Updated: 2, Duplicate: 1}
	if err := s.CompleteSession(ctx, id, counts); err != nil {
		t.Fatalf("CompleteSession() error = %v", err)
	}

	session, err = s.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session() after complete error = %v", err)
	}
	if session.Status != domain.SessionCompleted {
		t.Errorf("status = %q, want completed", session.Status)
	}
	if session.Found != 5 || session.New != 3 || session.Updated != 2 || session.Duplicate != 1 {
		t.Errorf("counters not persisted: %+v", session)
	}
	if session.CompletedAt == nil {
		t.Error("completed session missing completion time")
	}
}

func TestFailSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RecordSession(ctx, "ungm", domain.SessionRunning)
	if err != nil {
		t.Fatalf("RecordSession() error = %v", err)
	}
	if err := s.FailSession(ctx, id, "connection refused"); err != nil {
		t.Fatalf("FailSession() error = %v", err)
	}

	session, err := s.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if session.Status != domain.SessionFailed {
		t.Errorf("status = %q, want failed", session.Status)
	}
	if session.ErrorMsg != "connection refused" {
		t.Errorf("error message = %q", session.ErrorMsg)
	}
	if session.CompletedAt == nil {
		t.Error("failed session missing completion time")
	}
}

func TestSetStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("ToR: Status Flags Bangladesh", "https://test.example.org/flags")
	id, err := s.Insert(ctx, rec, rec.Fingerprint(), time.Now())
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := s.SetStatus(ctx, id, "is_favorite", true); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	opp, err := s.GetByFingerprint(ctx, rec.Fingerprint())
	if err != nil {
		t.Fatalf("GetByFingerprint() error = %v", err)
	}
	if !opp.IsFavorite {
		t.Error("favorite flag not set")
	}

	if err := s.SetStatus(ctx, id, "title", true); err == nil {
		t.Error("expected error for non-status column")
	}
}

func TestListOpportunities_Filters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tor := testRecord("ToR: Baseline Study Bangladesh", "https://test.example.org/l1")
	tor.RelevanceScore = 80

	rfp := testRecord("RFP: Endline Evaluation Bangladesh", "https://test.example.org/l2")
	rfp.DocumentType = domain.DocTypeRFP
	rfp.Source = "Other Portal"
	rfp.Keywords = []string{"evaluation"}
	rfp.RelevanceScore = 40

	archived := testRecord("Tender: Closed Works Bangladesh", "https://test.example.org/l3")
	archived.DocumentType = domain.DocTypeTender

	for _, rec := range []domain.EnrichedRecord{tor, rfp, archived} {
		if _, err := s.Insert(ctx, rec, rec.Fingerprint(), time.Now()); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	archivedRow, err := s.GetByFingerprint(ctx, archived.Fingerprint())
	if err != nil {
		t.Fatalf("GetByFingerprint() error = %v", err)
	}
	if err := s.SetStatus(ctx, archivedRow.ID, "is_archived", true); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	all, err := s.ListOpportunities(ctx, ListFilters{})
	if err != nil {
		t.Fatalf("ListOpportunities() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("default list should exclude archived rows, got %d", len(all))
	}

	withArchived, err := s.ListOpportunities(ctx, ListFilters{IncludeArchived: true})
	if err != nil {
		t.Fatalf("ListOpportunities(archived) error = %v", err)
	}
	if len(withArchived) != 3 {
		t.Errorf("expected 3 rows with archived included, got %d", len(withArchived))
	}

	bySource, err := s.ListOpportunities(ctx, ListFilters{Source: "Other Portal"})
	if err != nil {
		t.Fatalf("ListOpportunities(source) error = %v", err)
	}
	if len(bySource) != 1 || bySource[0].Title != rfp.Title {
		t.Errorf("source filter returned %+v", bySource)
	}

	byType, err := s.ListOpportunities(ctx, ListFilters{DocumentType: "ToR"})
	if err != nil {
		t.Fatalf("ListOpportunities(type) error = %v", err)
	}
	if len(byType) != 1 || byType[0].DocumentType != domain.DocTypeToR {
		t.Errorf("type filter returned %+v", byType)
	}

	byScore, err := s.ListOpportunities(ctx, ListFilters{MinRelevance: 50})
	if err != nil {
		t.Fatalf("ListOpportunities(score) error = %v", err)
	}
	if len(byScore) != 1 || byScore[0].Relevance != 80 {
		t.Errorf("relevance filter returned %+v", byScore)
	}

	byKeyword, err := s.ListOpportunities(ctx, ListFilters{Keyword: "evaluation"})
	if err != nil {
		t.Fatalf("ListOpportunities(keyword) error = %v", err)
	}
	if len(byKeyword) != 1 || byKeyword[0].Title != rfp.Title {
		t.Errorf("keyword filter returned %+v", byKeyword)
	}

	limited, err := s.ListOpportunities(ctx, ListFilters{IncludeArchived: true, Limit: 1})
	if err != nil {
		t.Fatalf("ListOpportunities(limit) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit not applied, got %d rows", len(limited))
	}
}
