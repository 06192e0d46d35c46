package reddit

import (
	"time"
)

// Post is the normalized shape every fetch strategy maps into. RedditPostID
// is the stable external id ("t3_" prefix stripped); posts without one are
// dropped during normalization.
type Post struct {
	RedditPostID    string
	Subreddit       string
	Title           string
	Selftext        string
	URL             string
	Permalink       string
	Author          string
	Score           int
	NumComments     int
	RedditCreatedAt time.Time
}
