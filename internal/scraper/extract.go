package scraper

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/registry"
)

// extractField resolves one field within a container. Alternatives are tried
// in order; the first non-empty value wins. Attribute-mode alternatives read
// the named attribute of the first matching sub-element, text-mode ones read
// trimmed text content. A failing selector yields an empty string rather
// than an error: partial records beat dropped records.
func extractField(container *goquery.Selection, fs registry.FieldSelector) string {
	for _, alt := range fs.Alternatives {
		match := container.Find(alt.Selector).First()
		if match.Length() == 0 {
			continue
		}
		var val string
		if alt.Attr != "" {
			val, _ = match.Attr(alt.Attr)
		} else {
			val = match.Text()
		}
		if val = strings.TrimSpace(val); val != "" {
			return val
		}
	}
	return ""
}

// extractRecord turns one container element into a RawRecord. Field names
// with standard meanings map onto the record's named fields; anything else
// lands in Extra.
func extractRecord(container *goquery.Selection, site registry.SiteConfig, base *url.URL, now time.Time) domain.RawRecord {
	rec := domain.RawRecord{
		Source:    site.Name,
		SourceKey: site.Key,
		ScrapedAt: now,
	}

	for field, fs := range site.Fields {
		val := extractField(container, fs)
		switch field {
		case "title":
			rec.Title = val
		case "description":
			rec.Description = val
		case "organization":
			rec.Organization = val
		case "deadline":
			rec.Deadline = val
		case "link":
			rec.Link = resolveLink(base, val)
		case "publish_date":
			rec.PublishDate = val
		default:
			if val != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[field] = val
			}
		}
	}

	return rec
}

// extractAll runs the extractor once per container match in the document.
func extractAll(doc *goquery.Document, site registry.SiteConfig, pageURL string, now time.Time) []domain.RawRecord {
	base, _ := url.Parse(pageURL)

	var records []domain.RawRecord
	doc.Find(site.Container).Each(func(_ int, s *goquery.Selection) {
		records = append(records, extractRecord(s, site, base, now))
	})
	return records
}

// resolveLink makes a scraped href absolute against the page URL.
func resolveLink(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	linkURL, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !linkURL.IsAbs() && base != nil {
		linkURL = base.ResolveReference(linkURL)
	}
	return linkURL.String()
}
