package scraper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tanversoccho/EchoTrace/internal/registry"
)

// readTestdata reads a fixture from the testdata directory.
func readTestdata(t *testing.T, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		t.Fatalf("failed to read testdata %s: %v", filename, err)
	}
	return string(data)
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func bdjobsStyleSite() registry.SiteConfig {
	return registry.SiteConfig{
		Key:       "fixture",
		Name:      "Fixture Portal",
		URL:       "https://fixture.example.org",
		Strategy:  registry.StrategyStatic,
		Container: ".job-item",
		Fields: map[string]registry.FieldSelector{
			"title":        registry.ParseSelector(".job-title a"),
			"organization": registry.ParseSelector(".company-name"),
			"description":  registry.ParseSelector(".job-desc"),
			"deadline":     registry.ParseSelector(".deadline"),
			"link":         registry.ParseSelector(".job-title a@href"),
			"publish_date": registry.ParseSelector(".post-time"),
		},
	}
}

func TestExtractAll_Listing(t *testing.T) {
	doc := parseDoc(t, readTestdata(t, "listing.html"))
	now := time.Now()

	records := extractAll(doc, bdjobsStyleSite(), "https://fixture.example.org/jobs", now)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if !strings.HasPrefix(first.Title, "Terms of Reference") {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.Organization != "BRAC" {
		t.Errorf("organization = %q, want BRAC", first.Organization)
	}
	if first.Deadline != "2025-09-30" {
		t.Errorf("deadline = %q", first.Deadline)
	}
	if first.Source != "Fixture Portal" || first.SourceKey != "fixture" {
		t.Errorf("provenance not tagged: %+v", first)
	}
	if !first.ScrapedAt.Equal(now) {
		t.Errorf("scrape timestamp not tagged")
	}
}

// Relative links must resolve against the page URL; absolute links pass
// through untouched.
func TestExtractAll_LinkResolution(t *testing.T) {
	doc := parseDoc(t, readTestdata(t, "listing.html"))

	records := extractAll(doc, bdjobsStyleSite(), "https://fixture.example.org/jobs", time.Now())

	if records[0].Link != "https://fixture.example.org/jobs/101" {
		t.Errorf("relative link not resolved: %q", records[0].Link)
	}
	if records[1].Link != "https://example.org/jobs/102" {
		t.Errorf("absolute link mangled: %q", records[1].Link)
	}
}

// A selector that matches nothing yields an empty field, never an error:
// partial records are preferable to dropped records.
func TestExtractAll_MissingSelectorYieldsEmptyField(t *testing.T) {
	doc := parseDoc(t, readTestdata(t, "listing.html"))

	records := extractAll(doc, bdjobsStyleSite(), "https://fixture.example.org/jobs", time.Now())

	// The third container has no .post-time element.
	if records[2].PublishDate != "" {
		t.Errorf("expected empty publish date, got %q", records[2].PublishDate)
	}
	if records[2].Title == "" {
		t.Error("record with one missing field must keep its other fields")
	}
}

// The first alternative yielding a non-empty match wins.
func TestExtractField_FallbackAlternatives(t *testing.T) {
	doc := parseDoc(t, readTestdata(t, "fallback.html"))

	site := registry.SiteConfig{
		Key:       "fallback",
		Name:      "Fallback Portal",
		URL:       "https://fallback.example.org",
		Strategy:  registry.StrategyStatic,
		Container: ".job-item, article",
		Fields: map[string]registry.FieldSelector{
			"title":       registry.ParseSelector("h3 a, h2 a"),
			"description": registry.ParseSelector(".job-description, .entry-content"),
			"link":        registry.ParseSelector("h3 a@href, h2 a@href"),
		},
	}

	records := extractAll(doc, site, "https://fallback.example.org", time.Now())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if !strings.HasPrefix(rec.Title, "EOI") {
		t.Errorf("h2 fallback not used for title: %q", rec.Title)
	}
	if rec.Link != "https://fallback.example.org/tenders/1" {
		t.Errorf("h2 fallback not used for link: %q", rec.Link)
	}
	if !strings.Contains(rec.Description, "monitoring assignment") {
		t.Errorf("entry-content fallback not used: %q", rec.Description)
	}
}

func TestExtractRecord_ExtraFields(t *testing.T) {
	doc := parseDoc(t, readTestdata(t, "listing.html"))

	site := bdjobsStyleSite()
	site.Fields["company"] = registry.ParseSelector(".company-name")

	records := extractAll(doc, site, "https://fixture.example.org/jobs", time.Now())
	if records[0].Extra["company"] != "BRAC" {
		t.Errorf("non-standard field not captured in Extra: %+v", records[0].Extra)
	}
}

func TestResolveLink_SkipsFragmentsAndJavascript(t *testing.T) {
	for _, href := range []string{"", "#top", "javascript:void(0)"} {
		if got := resolveLink(nil, href); got != "" {
			t.Errorf("resolveLink(%q) = %q, want empty", href, got)
		}
	}
}
