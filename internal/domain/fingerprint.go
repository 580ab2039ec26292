package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the content hash that serves as an opportunity's
// natural key. The same (title, link, source, publish date) tuple always
// yields the same value, which makes re-ingestion idempotent.
func Fingerprint(title, link, source, publishDate string) string {
	sum := md5.Sum([]byte(strings.Join([]string{title, link, source, publishDate}, "_")))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns the record's content hash.
func (r RawRecord) Fingerprint() string {
	return Fingerprint(r.Title, r.Link, r.Source, r.PublishDate)
}
