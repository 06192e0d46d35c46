package scan

import (
	"testing"
	"time"

	"github.com/akarpov/redscout/app/database"
	"github.com/akarpov/redscout/app/keywords"
	"github.com/akarpov/redscout/app/reddit"
)

func testPost(postID string) reddit.Post {
	return reddit.Post{
		RedditPostID:    postID,
		Subreddit:       "freelance",
		Title:           "Too many tools for freelancing",
		Selftext:        "I am juggling five different apps just to invoice clients.",
		URL:             "https://reddit.com/r/freelance/comments/" + postID,
		Permalink:       "/r/freelance/comments/" + postID,
		Author:          "tired_freelancer",
		Score:           12,
		NumComments:     4,
		RedditCreatedAt: time.Now().UTC().Add(-time.Hour),
	}
}

func TestGate_Admit_ZeroScoreSkipped(t *testing.T) {
	repo := newTestMatchRepo(t)
	gate := NewGate(repo)

	match, err := gate.Admit(testPost("abc123"), keywords.Result{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if match != nil {
		t.Errorf("Expected zero-score post to be skipped, got %+v", match)
	}

	stored, err := repo.GetByPostID("abc123")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored != nil {
		t.Error("Expected nothing persisted for zero-score post")
	}
}

func TestGate_Admit_PersistsNewMatch(t *testing.T) {
	repo := newTestMatchRepo(t)
	gate := NewGate(repo)

	result := keywords.Result{
		Score:           5,
		MatchedKeywords: []string{"too many tools", "invoice clients"},
		Categories:      []string{"workflow_pain", "invoicing"},
	}

	match, err := gate.Admit(testPost("abc123"), result)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if match == nil {
		t.Fatal("Expected match to be created")
	}
	if match.ID == 0 {
		t.Error("Expected persisted id")
	}
	if match.Status != database.StatusNew {
		t.Errorf("Expected status 'new', got '%s'", match.Status)
	}
	if match.RelevanceScore != 5 {
		t.Errorf("Expected relevance 5, got %d", match.RelevanceScore)
	}
	if match.SelftextSnippet == "" {
		t.Error("Expected snippet to be populated")
	}
}

func TestGate_Admit_Idempotent(t *testing.T) {
	repo := newTestMatchRepo(t)
	gate := NewGate(repo)

	result := keywords.Result{Score: 3, MatchedKeywords: []string{"too many tools"}, Categories: []string{"workflow_pain"}}

	first, err := gate.Admit(testPost("abc123"), result)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if first == nil {
		t.Fatal("Expected first admit to create a match")
	}

	second, err := gate.Admit(testPost("abc123"), result)
	if err != nil {
		t.Fatalf("Expected no error on repeat, got: %v", err)
	}
	if second != nil {
		t.Errorf("Expected repeat admit to be a no-op, got %+v", second)
	}

	matches, err := repo.List(database.MatchFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("Expected exactly 1 stored match, got %d", len(matches))
	}
}
