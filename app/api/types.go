package api

import (
	"context"
	"time"

	"github.com/akarpov/redscout/app/database"
	"github.com/akarpov/redscout/app/keywords"
	"github.com/akarpov/redscout/app/scan"
)

type ScanRunnerInterface interface {
	Run(ctx context.Context) *scan.RunSummary
}

var _ ScanRunnerInterface = (*scan.Scanner)(nil)

type Handler struct {
	matchRepo   database.MatchRepository
	scanLogRepo database.ScanLogRepository
	runner      ScanRunnerInterface
	catalog     *keywords.Catalog
}

type matchResponse struct {
	ID                int64      `json:"id"`
	RedditPostID      string     `json:"reddit_post_id"`
	Subreddit         string     `json:"subreddit"`
	Title             string     `json:"title"`
	SelftextSnippet   string     `json:"selftext_snippet"`
	URL               string     `json:"url"`
	Permalink         string     `json:"permalink"`
	Author            string     `json:"author"`
	Score             int        `json:"score"`
	NumComments       int        `json:"num_comments"`
	MatchedKeywords   []string   `json:"matched_keywords"`
	KeywordCategories []string   `json:"keyword_categories"`
	RelevanceScore    int        `json:"relevance_score"`
	Status            string     `json:"status"`
	DraftResponse     string     `json:"draft_response"`
	RedditCreatedAt   time.Time  `json:"reddit_created_at"`
	CreatedAt         time.Time  `json:"created_at"`
	RespondedAt       *time.Time `json:"responded_at"`
	NotifiedAt        *time.Time `json:"notified_at"`
}

func toMatchResponse(match database.Match) matchResponse {
	return matchResponse{
		ID:                match.ID,
		RedditPostID:      match.RedditPostID,
		Subreddit:         match.Subreddit,
		Title:             match.Title,
		SelftextSnippet:   match.SelftextSnippet,
		URL:               match.URL,
		Permalink:         match.Permalink,
		Author:            match.Author,
		Score:             match.Score,
		NumComments:       match.NumComments,
		MatchedKeywords:   match.MatchedKeywords,
		KeywordCategories: match.KeywordCategories,
		RelevanceScore:    match.RelevanceScore,
		Status:            match.Status,
		DraftResponse:     match.DraftResponse,
		RedditCreatedAt:   match.RedditCreatedAt,
		CreatedAt:         match.CreatedAt,
		RespondedAt:       match.RespondedAt,
		NotifiedAt:        match.NotifiedAt,
	}
}

type scanLogResponse struct {
	ID                int64     `json:"id"`
	ScannedAt         time.Time `json:"scanned_at"`
	SubredditsScanned []string  `json:"subreddits_scanned"`
	PostsChecked      int       `json:"posts_checked"`
	MatchesFound      int       `json:"matches_found"`
	Errors            string    `json:"errors,omitempty"`
}

func toScanLogResponse(log database.ScanLog) scanLogResponse {
	return scanLogResponse{
		ID:                log.ID,
		ScannedAt:         log.ScannedAt,
		SubredditsScanned: log.SubredditsScanned,
		PostsChecked:      log.PostsChecked,
		MatchesFound:      log.MatchesFound,
		Errors:            log.Errors,
	}
}
