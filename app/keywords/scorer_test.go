package keywords

import (
	"reflect"
	"testing"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()

	catalog, err := NewCatalog(Config{
		Subreddits: []string{"freelance"},
		Groups: []Group{
			{
				Category: "workflow_pain",
				Weight:   3,
				Keywords: []string{"too many tools", "juggling apps"},
			},
			{
				Category: "invoicing",
				Weight:   2,
				Keywords: []string{"unpaid invoice", "invoice clients"},
			},
			{
				Category: "time_tracking",
				Weight:   1,
				Keywords: []string{"track hours"},
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to build test catalog: %v", err)
	}

	return catalog
}

func TestScorer_Run_SingleKeywordInTitle(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	result := scorer.Run("Too many tools for freelancing", "")

	if result.Score != 3 {
		t.Errorf("Expected score 3, got %d", result.Score)
	}
	if !reflect.DeepEqual(result.MatchedKeywords, []string{"too many tools"}) {
		t.Errorf("Expected matched keywords [too many tools], got %v", result.MatchedKeywords)
	}
	if !reflect.DeepEqual(result.Categories, []string{"workflow_pain"}) {
		t.Errorf("Expected categories [workflow_pain], got %v", result.Categories)
	}
}

func TestScorer_Run_NoMatch(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	result := scorer.Run("Completely unrelated post", "about gardening")

	if result.Score != 0 {
		t.Errorf("Expected score 0, got %d", result.Score)
	}
	if len(result.MatchedKeywords) != 0 {
		t.Errorf("Expected no matched keywords, got %v", result.MatchedKeywords)
	}
	if len(result.Categories) != 0 {
		t.Errorf("Expected no categories, got %v", result.Categories)
	}
}

func TestScorer_Run_SumsWeightsAcrossCategories(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	result := scorer.Run("Juggling apps and an unpaid invoice", "I also track hours manually")

	if result.Score != 3+2+1 {
		t.Errorf("Expected score 6, got %d", result.Score)
	}

	expectedKeywords := []string{"juggling apps", "unpaid invoice", "track hours"}
	if !reflect.DeepEqual(result.MatchedKeywords, expectedKeywords) {
		t.Errorf("Expected matched keywords %v, got %v", expectedKeywords, result.MatchedKeywords)
	}

	expectedCategories := []string{"workflow_pain", "invoicing", "time_tracking"}
	if !reflect.DeepEqual(result.Categories, expectedCategories) {
		t.Errorf("Expected categories %v, got %v", expectedCategories, result.Categories)
	}
}

func TestScorer_Run_MatchedKeywordsFollowCatalogOrder(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	// Input mentions the invoicing keyword before the workflow one; the
	// output must still follow catalog order
	result := scorer.Run("unpaid invoice because of too many tools", "")

	expected := []string{"too many tools", "unpaid invoice"}
	if !reflect.DeepEqual(result.MatchedKeywords, expected) {
		t.Errorf("Expected catalog-ordered keywords %v, got %v", expected, result.MatchedKeywords)
	}
}

func TestScorer_Run_DuplicateOccurrencesCountOnce(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	result := scorer.Run("too many tools, seriously too many tools",
		"did I mention too many tools?")

	if result.Score != 3 {
		t.Errorf("Expected weight counted once (score 3), got %d", result.Score)
	}
	if len(result.MatchedKeywords) != 1 {
		t.Errorf("Expected keyword listed once, got %v", result.MatchedKeywords)
	}
}

func TestScorer_Run_CaseInsensitive(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	result := scorer.Run("TOO MANY TOOLS", "UNPAID Invoice")

	if result.Score != 5 {
		t.Errorf("Expected score 5, got %d", result.Score)
	}
}

func TestScorer_Run_CategoriesDeduplicated(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	result := scorer.Run("unpaid invoice and how to invoice clients", "")

	if result.Score != 4 {
		t.Errorf("Expected score 4, got %d", result.Score)
	}
	if !reflect.DeepEqual(result.Categories, []string{"invoicing"}) {
		t.Errorf("Expected single deduplicated category, got %v", result.Categories)
	}
	if len(result.MatchedKeywords) != 2 {
		t.Errorf("Expected both keywords listed, got %v", result.MatchedKeywords)
	}
}

func TestScorer_Run_Deterministic(t *testing.T) {
	scorer := NewScorer(testCatalog(t))

	title := "Juggling apps with an unpaid invoice"
	body := "and I track hours"

	first := scorer.Run(title, body)
	for i := 0; i < 10; i++ {
		next := scorer.Run(title, body)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("Scoring not deterministic: run %d gave %+v, expected %+v", i, next, first)
		}
	}
}
