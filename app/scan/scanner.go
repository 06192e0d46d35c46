package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akarpov/redscout/app/database"
	"github.com/akarpov/redscout/app/keywords"
	"github.com/akarpov/redscout/app/reddit"
)

const (
	// Posts older than this are never scored or admitted
	MaxPostAge = 48 * time.Hour
	// Unauthenticated Reddit allows roughly 10 requests/minute; pacing an
	// 8-subreddit pass at this interval stays under the ceiling while
	// finishing well inside a 60 s caller budget
	channelPause = 2 * time.Second
)

type Fetcher interface {
	FetchRecent(ctx context.Context, subreddit string, limit int) ([]reddit.Post, error)
}

type Notifier interface {
	Notify(matches []database.Match) bool
}

// Scanner is the top-level control loop: it walks the configured subreddits
// sequentially, scores and admits fresh posts, alerts on new matches and
// records one scan log row per run. Subreddits are deliberately not fetched
// in parallel; the pacing delay is what keeps the shared upstream rate limit
// intact.
type Scanner struct {
	catalog     *keywords.Catalog
	scorer      *keywords.Scorer
	fetcher     Fetcher
	gate        *Gate
	notifier    Notifier
	matchRepo   database.MatchRepository
	scanLogRepo database.ScanLogRepository
	postLimit   int
	pause       time.Duration
	now         func() time.Time
}

func NewScanner(catalog *keywords.Catalog, scorer *keywords.Scorer, fetcher Fetcher,
	gate *Gate, notifier Notifier, matchRepo database.MatchRepository,
	scanLogRepo database.ScanLogRepository, postLimit int) *Scanner {
	return &Scanner{
		catalog:     catalog,
		scorer:      scorer,
		fetcher:     fetcher,
		gate:        gate,
		notifier:    notifier,
		matchRepo:   matchRepo,
		scanLogRepo: scanLogRepo,
		postLimit:   postLimit,
		pause:       channelPause,
		now:         time.Now,
	}
}

// Run executes one complete pass. It never fails the caller: every error is
// bounded to its channel or post and collected into the summary, and the
// scan log row is written regardless.
func (s *Scanner) Run(ctx context.Context) *RunSummary {
	summary := &RunSummary{
		ScannedAt:         s.now().UTC(),
		SubredditsScanned: []string{},
		Errors:            []string{},
	}

	s.runGuarded(ctx, summary)

	scanLog := &database.ScanLog{
		ScannedAt:         summary.ScannedAt,
		SubredditsScanned: summary.SubredditsScanned,
		PostsChecked:      summary.PostsChecked,
		MatchesFound:      summary.MatchesFound,
		Errors:            strings.Join(summary.Errors, "; "),
	}
	if _, err := s.scanLogRepo.Insert(scanLog); err != nil {
		slog.Error("Failed to write scan log", "error", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("scan log write failed: %v", err))
	}

	slog.Info("Scan completed",
		"subreddits", len(summary.SubredditsScanned),
		"posts_checked", summary.PostsChecked,
		"matches_found", summary.MatchesFound,
		"errors", len(summary.Errors),
		"duration", time.Since(summary.ScannedAt).Round(time.Millisecond).String())

	return summary
}

// runGuarded holds the outermost error boundary: an unexpected panic lands
// in the error list instead of killing the process, and the caller still
// writes the scan log.
func (s *Scanner) runGuarded(ctx context.Context, summary *RunSummary) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Unexpected scan failure", "panic", r)
			summary.Errors = append(summary.Errors, fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	for i, subreddit := range s.catalog.Subreddits() {
		if i > 0 {
			if !s.pauseBetweenChannels(ctx) {
				// Caller timeout truncates the run; remaining subreddits
				// are picked up next run
				return
			}
		}

		s.scanSubreddit(ctx, subreddit, summary)
	}

	if len(summary.NewMatches) == 0 || s.notifier == nil {
		return
	}

	if !s.notifier.Notify(summary.NewMatches) {
		slog.Warn("Alert delivery failed, matches stay unnotified", "count", len(summary.NewMatches))
		return
	}

	ids := make([]int64, len(summary.NewMatches))
	for i, match := range summary.NewMatches {
		ids[i] = match.ID
	}
	if err := s.matchRepo.MarkNotified(ids, s.now().UTC()); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to mark matches notified: %v", err))
	}
}

func (s *Scanner) scanSubreddit(ctx context.Context, subreddit string, summary *RunSummary) {
	posts, err := s.fetcher.FetchRecent(ctx, subreddit, s.postLimit)
	if err != nil {
		slog.Warn("Subreddit scan failed", "subreddit", subreddit, "error", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("error scanning r/%s: %v", subreddit, err))
		return
	}

	summary.SubredditsScanned = append(summary.SubredditsScanned, subreddit)
	summary.PostsChecked += len(posts)

	for _, post := range posts {
		if s.now().Sub(post.RedditCreatedAt) > MaxPostAge {
			continue
		}

		result := s.scorer.Run(post.Title, post.Selftext)
		if result.Score == 0 {
			continue
		}

		match, err := s.gate.Admit(post, result)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("insert error for %s: %v", post.RedditPostID, err))
			continue
		}
		if match == nil {
			// Already recorded on a previous run
			continue
		}

		slog.Debug("New match admitted", "subreddit", subreddit, "post", post.RedditPostID,
			"relevance", result.Score, "keywords", len(result.MatchedKeywords))

		summary.MatchesFound++
		summary.NewMatches = append(summary.NewMatches, *match)
	}
}

func (s *Scanner) pauseBetweenChannels(ctx context.Context) bool {
	if s.pause <= 0 {
		return true
	}

	timer := time.NewTimer(s.pause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
