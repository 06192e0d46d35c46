package database

import (
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testMatch(postID, subreddit string) *Match {
	return &Match{
		RedditPostID:      postID,
		Subreddit:         subreddit,
		Title:             "Too many tools for freelancing",
		SelftextSnippet:   "I keep juggling apps all day",
		URL:               "https://www.reddit.com/r/" + subreddit + "/comments/" + postID + "/",
		Permalink:         "/r/" + subreddit + "/comments/" + postID + "/",
		Author:            "testuser",
		Score:             12,
		NumComments:       4,
		MatchedKeywords:   []string{"too many tools", "juggling apps"},
		KeywordCategories: []string{"workflow_pain"},
		RelevanceScore:    6,
		RedditCreatedAt:   time.Now().UTC().Add(-2 * time.Hour),
	}
}
