package scan

import (
	"fmt"

	"github.com/akarpov/redscout/app/database"
	"github.com/akarpov/redscout/app/keywords"
	"github.com/akarpov/redscout/app/reddit"
)

// Gate decides whether a scored post becomes a persisted match. It is the
// only component that creates matches; the scan pipeline never mutates them
// afterwards except to stamp notified_at.
type Gate struct {
	matchRepo database.MatchRepository
}

func NewGate(matchRepo database.MatchRepository) *Gate {
	return &Gate{matchRepo: matchRepo}
}

// Admit returns the newly created match, or nil when the post scored zero or
// was already recorded under the same external id. Re-running a scan over
// the same posts is therefore idempotent.
func (g *Gate) Admit(post reddit.Post, result keywords.Result) (*database.Match, error) {
	if result.Score == 0 {
		return nil, nil
	}

	existing, err := g.matchRepo.GetByPostID(post.RedditPostID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing match: %w", err)
	}
	if existing != nil {
		return nil, nil
	}

	match := &database.Match{
		RedditPostID:      post.RedditPostID,
		Subreddit:         post.Subreddit,
		Title:             post.Title,
		SelftextSnippet:   Snippet(post.Selftext, SnippetMaxLength),
		URL:               post.URL,
		Permalink:         post.Permalink,
		Author:            post.Author,
		Score:             post.Score,
		NumComments:       post.NumComments,
		MatchedKeywords:   result.MatchedKeywords,
		KeywordCategories: result.Categories,
		RelevanceScore:    result.Score,
		Status:            database.StatusNew,
		RedditCreatedAt:   post.RedditCreatedAt,
	}

	inserted, err := g.matchRepo.Insert(match)
	if err != nil {
		return nil, fmt.Errorf("failed to persist match: %w", err)
	}

	return inserted, nil
}
