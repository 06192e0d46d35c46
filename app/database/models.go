package database

import (
	"time"
)

// Match lifecycle statuses. A match starts as StatusNew; the dashboard moves
// it forward. StatusDeleted is terminal.
const (
	StatusNew      = "new"
	StatusDrafted  = "drafted"
	StatusSent     = "sent"
	StatusArchived = "archived"
	StatusDeleted  = "deleted"
)

// ValidStatus reports whether s is a known match status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusDrafted, StatusSent, StatusArchived, StatusDeleted:
		return true
	}
	return false
}

// Match is a persisted post that scored above zero against the catalog.
type Match struct {
	ID                int64
	RedditPostID      string
	Subreddit         string
	Title             string
	SelftextSnippet   string
	URL               string
	Permalink         string
	Author            string
	Score             int // upstream vote score
	NumComments       int
	MatchedKeywords   []string
	KeywordCategories []string
	RelevanceScore    int
	Status            string
	DraftResponse     string
	RedditCreatedAt   time.Time
	CreatedAt         time.Time
	RespondedAt       *time.Time
	NotifiedAt        *time.Time
}

// ScanLog is one append-only row per orchestrator run.
type ScanLog struct {
	ID                int64
	ScannedAt         time.Time
	SubredditsScanned []string
	PostsChecked      int
	MatchesFound      int
	Errors            string // concatenated messages, empty when the run was clean
}
