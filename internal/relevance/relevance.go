// Package relevance implements the pure classification functions applied to
// scraped postings: criteria matching, document-type inference, scoring,
// and title similarity for duplicate detection.
package relevance

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tanversoccho/EchoTrace/internal/domain"
)

// TargetCountry is the country every persisted posting must mention.
const TargetCountry = "bangladesh"

// DuplicateThreshold is the Jaccard similarity at or above which two titles
// are treated as duplicates.
const DuplicateThreshold = 0.8

// FilterKeywords gate ingestion: a posting must contain at least one of
// these to survive the hard filter.
var FilterKeywords = []string{
	"baseline", "mid-term", "midline", "endline",
	"final evaluation", "impact evaluation", "studies",
	"assessment", "research", "study", "monitoring",
	"consultancy", "consultant", "consulting", "firm",
}

// ScoreKeywords feed enrichment and scoring. Narrower than FilterKeywords:
// "firm" alone is too generic to contribute to a relevance score.
var ScoreKeywords = []string{
	"baseline", "mid-term", "midline", "endline",
	"final evaluation", "impact evaluation", "studies",
	"assessment", "research", "study", "monitoring",
	"consultancy", "consultant", "consulting",
}

// docTypeRules are checked in order; the first phrase match wins. ToR is
// deliberately checked before RFP since both phrasings often co-occur.
var docTypeRules = []struct {
	phrases []string
	docType domain.DocumentType
}{
	{[]string{"terms of reference", "tor"}, domain.DocTypeToR},
	{[]string{"request for proposal", "rfp"}, domain.DocTypeRFP},
	{[]string{"expression of interest", "eoi"}, domain.DocTypeEOI},
	{[]string{"request for quotation", "rfq"}, domain.DocTypeRFQ},
	{[]string{"tender"}, domain.DocTypeTender},
}

// combined folds title and description into the single lowercased text all
// classification functions operate on.
func combined(title, description string) string {
	return strings.ToLower(title + " " + description)
}

// matchPhrase matches multi-word phrases by substring and single-word
// abbreviations on word boundaries, so "tor" never fires inside "monitoring".
func matchPhrase(text, phrase string) bool {
	if strings.Contains(phrase, " ") {
		return strings.Contains(text, phrase)
	}
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if w == phrase {
			return true
		}
	}
	return false
}

// MatchesCriteria reports whether a posting mentions the target country and
// contains at least one filter keyword. Plain substring matching, no stemming.
func MatchesCriteria(title, description string) bool {
	text := combined(title, description)
	if !strings.Contains(text, TargetCountry) {
		return false
	}
	for _, kw := range FilterKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// HasDocTypePhrase reports whether the text contains any plausible
// procurement-document marker, long form or abbreviation.
func HasDocTypePhrase(title, description string) bool {
	text := combined(title, description)
	for _, rule := range docTypeRules {
		for _, phrase := range rule.phrases {
			if matchPhrase(text, phrase) {
				return true
			}
		}
	}
	return false
}

// InferDocumentType classifies the posting by its first matching phrase rule.
func InferDocumentType(title, description string) domain.DocumentType {
	text := combined(title, description)
	for _, rule := range docTypeRules {
		for _, phrase := range rule.phrases {
			if matchPhrase(text, phrase) {
				return rule.docType
			}
		}
	}
	return domain.DocTypeOther
}

// MatchedKeywords returns the distinct score keywords present in the text,
// in list order.
func MatchedKeywords(title, description string) []string {
	text := combined(title, description)
	var matched []string
	for _, kw := range ScoreKeywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// Score is the canonical relevance formula used at enrichment time and for
// the persisted value: +30 for a country mention, +10 per distinct matched
// keyword, +20 for ToR phrasing, +15 for "evaluation". Capped at 100.
func Score(title, description string) int {
	text := combined(title, description)
	score := 0

	if strings.Contains(text, TargetCountry) {
		score += 30
	}
	score += len(MatchedKeywords(title, description)) * 10
	if strings.Contains(text, "terms of reference") || matchPhrase(text, "tor") {
		score += 20
	}
	if strings.Contains(text, "evaluation") {
		score += 15
	}

	return clampScore(score)
}

// ScoreWeighted is the alternative formula used to rank the filter-only scan
// view: +10 per matched keyword, +20 for a country mention, and a document
// type bonus of +15 for ToR or +10 for RFP. Capped at 100.
func ScoreWeighted(title, description string, docType domain.DocumentType) int {
	text := combined(title, description)
	score := len(MatchedKeywords(title, description)) * 10

	if strings.Contains(text, TargetCountry) {
		score += 20
	}
	switch docType {
	case domain.DocTypeToR:
		score += 15
	case domain.DocTypeRFP:
		score += 10
	}

	return clampScore(score)
}

func clampScore(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// Similarity computes the Jaccard index over the case-folded word sets of
// two titles. Tokens of two characters or fewer are ignored so that noise
// words and punctuation differences do not inflate the score.
func Similarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	union := len(setB)
	for w := range setA {
		if setB[w] {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

// Summary renders the short human-readable digest stored with each posting.
func Summary(rec domain.RawRecord) string {
	org := rec.Organization
	if org == "" {
		org = "Not specified"
	}
	deadline := "Deadline: Not specified"
	if rec.Deadline != "" {
		deadline = "Deadline: " + rec.Deadline
	}
	desc := "No description available"
	if rec.Description != "" {
		desc = rec.Description
		if len(desc) > 200 {
			desc = desc[:200] + "..."
		}
	}

	return strings.Join([]string{
		fmt.Sprintf("Opportunity: %s", rec.Title),
		fmt.Sprintf("Organization: %s", org),
		deadline,
		desc,
	}, "\n")
}
