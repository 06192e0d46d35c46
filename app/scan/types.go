package scan

import (
	"time"

	"github.com/akarpov/redscout/app/database"
)

// RunSummary aggregates the outcome of one orchestrator pass over all
// configured subreddits.
type RunSummary struct {
	ScannedAt         time.Time
	SubredditsScanned []string
	PostsChecked      int
	MatchesFound      int
	NewMatches        []database.Match
	Errors            []string
}
