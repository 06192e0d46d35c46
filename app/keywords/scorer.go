package keywords

import (
	"strings"

	"golang.org/x/text/cases"
)

// Scorer computes the relevance of a post against a fixed catalog. Output is
// a pure function of (title, body, catalog): every entry is tested, matches
// are collected in catalog order, and each entry contributes its weight at
// most once per post.
type Scorer struct {
	catalog *Catalog
}

func NewScorer(catalog *Catalog) *Scorer {
	return &Scorer{catalog: catalog}
}

func (s *Scorer) Run(title, body string) Result {
	// cases.Caser is stateful, so a fresh one per call
	text := cases.Fold().String(title + " " + body)

	result := Result{
		MatchedKeywords: []string{},
		Categories:      []string{},
	}

	seenCategories := make(map[string]bool)

	for _, entry := range s.catalog.Entries() {
		if !strings.Contains(text, entry.Keyword) {
			continue
		}

		result.Score += entry.Weight
		result.MatchedKeywords = append(result.MatchedKeywords, entry.Keyword)

		if !seenCategories[entry.Category] {
			seenCategories[entry.Category] = true
			result.Categories = append(result.Categories, entry.Category)
		}
	}

	return result
}
